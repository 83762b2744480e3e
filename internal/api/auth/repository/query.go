package authRepository

const (
	queryCreateUser = `
INSERT INTO users (id, name, email, password, role, created_at, updated_at)
VALUES (:id, :name, :email, :password, :role, :created_at, :updated_at)`

	queryGetByID = `
SELECT id, name, email, password, role, created_at, updated_at
FROM users
    WHERE id = :id`

	queryGetByEmail = `
SELECT id, name, email, password, role, created_at, updated_at
FROM users
    WHERE lower(email) = lower(:email)`

	queryListUsers = `
SELECT id, name, email, password, role, created_at, updated_at
FROM users
ORDER BY name ASC, id ASC`
)
