package travelRepository

const (
	queryCreateTrip = `
		INSERT INTO trips (
			id,
			created_by_admin_id,
			city,
			start_date,
			end_date,
			project,
			notes,
			status,
			total_amount,
			created_at,
			updated_at
		) VALUES (
			:id,
			:created_by_admin_id,
			:city,
			:start_date,
			:end_date,
			:project,
			:notes,
			:status,
			:total_amount,
			:created_at,
			:updated_at
		)
	`

	queryGetTripByID = `
		SELECT
			id,
			created_by_admin_id,
			city,
			start_date,
			end_date,
			project,
			notes,
			status,
			total_amount,
			created_at,
			updated_at
		FROM trips
		WHERE id = :id
	`

	queryLockTrip = `
		SELECT id
		FROM trips
		WHERE id = :id
		FOR UPDATE
	`

	queryUpdateTrip = `
		UPDATE trips
		SET
			city = :city,
			start_date = :start_date,
			end_date = :end_date,
			project = :project,
			notes = :notes,
			status = :status,
			total_amount = :total_amount,
			updated_at = :updated_at
		WHERE id = :id
	`

	queryUpdateTripStatus = `
		UPDATE trips
		SET
			status = :status,
			updated_at = :updated_at
		WHERE id = :id
	`

	queryAddToTripTotal = `
		UPDATE trips
		SET
			total_amount = total_amount + :delta,
			updated_at = :updated_at
		WHERE id = :id
	`

	queryRecomputeTripTotal = `
		UPDATE trips
		SET
			total_amount = COALESCE((SELECT SUM(amount) FROM expenses WHERE trip_id = :id), 0),
			updated_at = :updated_at
		WHERE id = :id
		RETURNING total_amount
	`

	queryDeleteTrip = `
		DELETE FROM trips
		WHERE id = :id
	`

	queryListAllTrips = `
		SELECT
			id,
			created_by_admin_id,
			city,
			start_date,
			end_date,
			project,
			notes,
			status,
			total_amount,
			created_at,
			updated_at
		FROM trips
		ORDER BY created_at DESC, id DESC
		LIMIT :limit OFFSET :offset
	`

	queryListAssignedTrips = `
		SELECT
			t.id,
			t.created_by_admin_id,
			t.city,
			t.start_date,
			t.end_date,
			t.project,
			t.notes,
			t.status,
			t.total_amount,
			t.created_at,
			t.updated_at
		FROM trips t
		JOIN trip_assignments ta ON ta.trip_id = t.id
		WHERE ta.user_id = :user_id
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT :limit OFFSET :offset
	`

	queryCountAllTrips = `
		SELECT COUNT(*) FROM trips
	`

	queryCountAssignedTrips = `
		SELECT COUNT(*)
		FROM trip_assignments
		WHERE user_id = :user_id
	`

	queryTripStatsAll = `
		SELECT
			status,
			COUNT(*) AS count,
			COALESCE(SUM(total_amount), 0) AS total_amount
		FROM trips
		GROUP BY status
		ORDER BY status
	`

	queryTripStatsAssigned = `
		SELECT
			t.status,
			COUNT(*) AS count,
			COALESCE(SUM(t.total_amount), 0) AS total_amount
		FROM trips t
		JOIN trip_assignments ta ON ta.trip_id = t.id
		WHERE ta.user_id = :user_id
		GROUP BY t.status
		ORDER BY t.status
	`

	queryCreateAssignment = `
		INSERT INTO trip_assignments (
			id,
			trip_id,
			user_id,
			assigned_at
		) VALUES (
			:id,
			:trip_id,
			:user_id,
			:assigned_at
		)
	`

	queryDeleteAssignmentsByTrip = `
		DELETE FROM trip_assignments
		WHERE trip_id = :trip_id
	`

	queryIsAssigned = `
		SELECT EXISTS (
			SELECT 1
			FROM trip_assignments
			WHERE trip_id = :trip_id AND user_id = :user_id
		)
	`

	queryAssignedUsersByTrips = `
		SELECT
			ta.trip_id,
			u.id,
			u.name,
			u.email
		FROM trip_assignments ta
		JOIN users u ON u.id = ta.user_id
		WHERE ta.trip_id IN (?)
		ORDER BY ta.assigned_at, ta.id
	`

	queryExistingUserIDs = `
		SELECT id
		FROM users
		WHERE id IN (?)
	`

	queryCreateExpense = `
		INSERT INTO expenses (
			id,
			trip_id,
			date,
			amount,
			category,
			vendor,
			description,
			receipt_url,
			invoice_number,
			payment_method,
			created_by_admin_id,
			created_at,
			updated_at
		) VALUES (
			:id,
			:trip_id,
			:date,
			:amount,
			:category,
			:vendor,
			:description,
			:receipt_url,
			:invoice_number,
			:payment_method,
			:created_by_admin_id,
			:created_at,
			:updated_at
		)
	`

	queryGetExpenseByID = `
		SELECT
			id,
			trip_id,
			date,
			amount,
			category,
			vendor,
			description,
			receipt_url,
			invoice_number,
			payment_method,
			created_by_admin_id,
			created_at,
			updated_at
		FROM expenses
		WHERE id = :id
	`

	queryUpdateExpense = `
		UPDATE expenses
		SET
			date = :date,
			amount = :amount,
			category = :category,
			vendor = :vendor,
			description = :description,
			receipt_url = :receipt_url,
			invoice_number = :invoice_number,
			payment_method = :payment_method,
			updated_at = :updated_at
		WHERE id = :id
	`

	queryDeleteExpense = `
		DELETE FROM expenses
		WHERE id = :id
	`

	queryListExpensesByTrip = `
		SELECT
			id,
			trip_id,
			date,
			amount,
			category,
			vendor,
			description,
			receipt_url,
			invoice_number,
			payment_method,
			created_by_admin_id,
			created_at,
			updated_at
		FROM expenses
		WHERE trip_id = :trip_id
		ORDER BY date DESC, created_at DESC
	`

	queryListExportExpenses = `
		SELECT
			e.id,
			e.trip_id,
			e.date,
			e.amount,
			e.category,
			e.vendor,
			e.description,
			e.receipt_url,
			e.invoice_number,
			e.payment_method,
			e.created_by_admin_id,
			e.created_at,
			e.updated_at,
			t.city AS trip_city,
			t.start_date AS trip_start_date,
			t.end_date AS trip_end_date,
			t.project AS trip_project
		FROM expenses e
		JOIN trips t ON t.id = e.trip_id
		ORDER BY e.date ASC, e.created_at ASC, e.id ASC
	`
)
