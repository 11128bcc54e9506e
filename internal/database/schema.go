package database

var sqliteSchema = []string{
	// Таблица пользователей
	`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            telegram_id INTEGER UNIQUE NOT NULL,
            username TEXT NOT NULL DEFAULT '',
            first_name TEXT NOT NULL DEFAULT '',
            last_name TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            is_staff BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
	// Каталог книг
	`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY,
            title TEXT NOT NULL,
            author TEXT NOT NULL DEFAULT '',
            cover TEXT NOT NULL CHECK (cover IN ('HARD', 'SOFT')),
            inventory INTEGER NOT NULL CHECK (inventory >= 0),
            daily_fee TEXT NOT NULL,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
	// Выдачи книг
	`CREATE TABLE IF NOT EXISTS borrowings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            user_id INTEGER NOT NULL REFERENCES users(id),
            book_id INTEGER NOT NULL REFERENCES books(id),
            borrow_date DATE NOT NULL,
            expected_return_date DATE NOT NULL,
            actual_return_date DATE,
            created_at DATETIME NOT NULL,
            CHECK (expected_return_date >= borrow_date)
        )`,
	`CREATE TABLE IF NOT EXISTS payments (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            borrowing_id INTEGER NOT NULL REFERENCES borrowings(id),
            status TEXT NOT NULL DEFAULT 'PENDING',
            type TEXT NOT NULL,
            session_id TEXT NOT NULL,
            session_url TEXT NOT NULL,
            money_to_pay INTEGER NOT NULL,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            UNIQUE (borrowing_id, type)
        )`,
	// Очередь уведомлений
	`CREATE TABLE IF NOT EXISTS notifications (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            kind TEXT NOT NULL,
            chat_id INTEGER NOT NULL,
            message TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME NOT NULL,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

	`CREATE INDEX IF NOT EXISTS idx_borrowings_user_id ON borrowings(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_borrowings_active ON borrowings(actual_return_date, expected_return_date)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_borrowing_id ON payments(borrowing_id)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_status ON notifications(status, next_retry_at)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
            id BIGSERIAL PRIMARY KEY,
            telegram_id BIGINT UNIQUE NOT NULL,
            username TEXT NOT NULL DEFAULT '',
            first_name TEXT NOT NULL DEFAULT '',
            last_name TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            is_staff BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL
        )`,
	`CREATE TABLE IF NOT EXISTS books (
            id BIGINT PRIMARY KEY,
            title TEXT NOT NULL,
            author TEXT NOT NULL DEFAULT '',
            cover TEXT NOT NULL CHECK (cover IN ('HARD', 'SOFT')),
            inventory BIGINT NOT NULL CHECK (inventory >= 0),
            daily_fee NUMERIC(6, 2) NOT NULL,
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL
        )`,
	`CREATE TABLE IF NOT EXISTS borrowings (
            id BIGSERIAL PRIMARY KEY,
            user_id BIGINT NOT NULL REFERENCES users(id),
            book_id BIGINT NOT NULL REFERENCES books(id),
            borrow_date DATE NOT NULL,
            expected_return_date DATE NOT NULL,
            actual_return_date DATE,
            created_at TIMESTAMPTZ NOT NULL,
            CHECK (expected_return_date >= borrow_date)
        )`,
	`CREATE TABLE IF NOT EXISTS payments (
            id BIGSERIAL PRIMARY KEY,
            borrowing_id BIGINT NOT NULL REFERENCES borrowings(id),
            status TEXT NOT NULL DEFAULT 'PENDING',
            type TEXT NOT NULL,
            session_id TEXT NOT NULL,
            session_url TEXT NOT NULL,
            money_to_pay BIGINT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL,
            UNIQUE (borrowing_id, type)
        )`,
	`CREATE TABLE IF NOT EXISTS notifications (
            id BIGSERIAL PRIMARY KEY,
            kind TEXT NOT NULL,
            chat_id BIGINT NOT NULL,
            message TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at TIMESTAMPTZ NOT NULL,
            processed_at TIMESTAMPTZ,
            next_retry_at TIMESTAMPTZ
        )`,

	`CREATE INDEX IF NOT EXISTS idx_borrowings_user_id ON borrowings(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_borrowings_active ON borrowings(actual_return_date, expected_return_date)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_borrowing_id ON payments(borrowing_id)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_status ON notifications(status, next_retry_at)`,
}
