package sqlstore

// Timestamps are stored as UTC unix nanoseconds so the same DDL and scan
// path work for PostgreSQL and SQLite.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
  id BIGINT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'USER',
  password_hash TEXT NOT NULL,
  credentials_current BOOLEAN NOT NULL DEFAULT TRUE,
  enabled BOOLEAN NOT NULL DEFAULT TRUE,
  account_non_expired BOOLEAN NOT NULL DEFAULT TRUE,
  email_verified BOOLEAN NOT NULL DEFAULT FALSE,
  phone_verified BOOLEAN NOT NULL DEFAULT FALSE,
  phone_number TEXT NOT NULL DEFAULT '',
  verification_token TEXT,
  verification_expiry BIGINT,
  failed_login_attempts INTEGER NOT NULL DEFAULT 0,
  locked_until BIGINT,
  last_login BIGINT,
  two_factor_enabled BOOLEAN NOT NULL DEFAULT FALSE,
  otp_secret TEXT,
  otp_code TEXT,
  otp_expiry BIGINT,
  totp_last_step BIGINT NOT NULL DEFAULT 0,
  password_reset_token TEXT,
  password_reset_expiry BIGINT,
  version BIGINT NOT NULL DEFAULT 1,
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_accounts_reset_token ON accounts(password_reset_token);
CREATE INDEX IF NOT EXISTS idx_accounts_verification_token ON accounts(verification_token);
CREATE INDEX IF NOT EXISTS idx_accounts_locked_until ON accounts(locked_until);
`

const columns = `id, username, email, first_name, last_name, role,
  password_hash, credentials_current, enabled, account_non_expired,
  email_verified, phone_verified, phone_number, verification_token, verification_expiry,
  failed_login_attempts, locked_until, last_login,
  two_factor_enabled, otp_secret, otp_code, otp_expiry, totp_last_step,
  password_reset_token, password_reset_expiry, version, created_at, updated_at`

const insertQuery = `INSERT INTO accounts (` + columns + `) VALUES (
  :id, :username, :email, :first_name, :last_name, :role,
  :password_hash, :credentials_current, :enabled, :account_non_expired,
  :email_verified, :phone_verified, :phone_number, :verification_token, :verification_expiry,
  :failed_login_attempts, :locked_until, :last_login,
  :two_factor_enabled, :otp_secret, :otp_code, :otp_expiry, :totp_last_step,
  :password_reset_token, :password_reset_expiry, :version, :created_at, :updated_at)`

const updateQuery = `UPDATE accounts SET
  username = :username, email = :email, first_name = :first_name, last_name = :last_name, role = :role,
  password_hash = :password_hash, credentials_current = :credentials_current,
  enabled = :enabled, account_non_expired = :account_non_expired,
  email_verified = :email_verified, phone_verified = :phone_verified, phone_number = :phone_number,
  verification_token = :verification_token, verification_expiry = :verification_expiry,
  failed_login_attempts = :failed_login_attempts, locked_until = :locked_until, last_login = :last_login,
  two_factor_enabled = :two_factor_enabled, otp_secret = :otp_secret, otp_code = :otp_code,
  otp_expiry = :otp_expiry, totp_last_step = :totp_last_step,
  password_reset_token = :password_reset_token, password_reset_expiry = :password_reset_expiry,
  updated_at = :updated_at, version = version + 1
WHERE id = :id AND version = :version`
