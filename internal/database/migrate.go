package database

import (
	"context"
	"database/sql"
)

// schema holds the CREATE TABLE statements for every table the service
// owns, in dependency order.  All statements are idempotent so Migrate can
// run at every startup and inside the provisioning commands.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(16) NOT NULL DEFAULT 'STUDENT',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_refresh_tokens_hash (token_hash),
		CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS students (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL UNIQUE,
		roll_number VARCHAR(20) NOT NULL UNIQUE,
		branch VARCHAR(100) NOT NULL DEFAULT '',
		no_show_count INT NOT NULL DEFAULT 0,
		last_penalty_at DATETIME NULL,
		is_restricted TINYINT(1) NOT NULL DEFAULT 0,
		fine_paise BIGINT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_students_user FOREIGN KEY (user_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS seats (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		number VARCHAR(10) NOT NULL UNIQUE,
		location VARCHAR(50) NOT NULL DEFAULT '',
		description VARCHAR(200) NOT NULL DEFAULT '',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_seats_active (is_active)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		student_id BIGINT UNSIGNED NOT NULL,
		seat_id BIGINT UNSIGNED NOT NULL,
		start_time DATETIME NOT NULL,
		end_time DATETIME NOT NULL,
		status ENUM('reserved','checked_in','cancelled','completed','no_show') NOT NULL DEFAULT 'reserved',
		check_in_time DATETIME NULL,
		otp_code CHAR(6) NULL,
		otp_generated_at DATETIME NULL,
		notes TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_reservations_seat (seat_id),
		KEY idx_reservations_status (status),
		KEY idx_reservations_start (start_time),
		KEY idx_reservations_active (student_id, status, end_time),
		CONSTRAINT fk_reservations_student FOREIGN KEY (student_id) REFERENCES students (id),
		CONSTRAINT fk_reservations_seat FOREIGN KEY (seat_id) REFERENCES seats (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS otps (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		student_id BIGINT UNSIGNED NOT NULL,
		reservation_id BIGINT UNSIGNED NOT NULL,
		code CHAR(6) NOT NULL,
		generated_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_otps_student (student_id),
		KEY idx_otps_reservation (reservation_id),
		CONSTRAINT fk_otps_student FOREIGN KEY (student_id) REFERENCES students (id),
		CONSTRAINT fk_otps_reservation FOREIGN KEY (reservation_id) REFERENCES reservations (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS settings (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		max_booking_duration_min INT NOT NULL DEFAULT 180,
		max_advance_booking_days INT NOT NULL DEFAULT 1,
		check_in_buffer_min INT NOT NULL DEFAULT 15,
		max_active_reservations INT NOT NULL DEFAULT 1,
		penalty_threshold INT NOT NULL DEFAULT 3,
		penalty_duration_days INT NOT NULL DEFAULT 7
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS payments (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		student_id BIGINT UNSIGNED NOT NULL,
		amount_paise BIGINT NOT NULL,
		status ENUM('pending','completed','failed') NOT NULL DEFAULT 'pending',
		session_id CHAR(36) NOT NULL UNIQUE,
		provider_ref VARCHAR(255) NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_payments_student_status (student_id, status),
		CONSTRAINT fk_payments_student FOREIGN KEY (student_id) REFERENCES students (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies the schema statements one by one.  Statements use
// IF NOT EXISTS, so an already provisioned database is left untouched.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
