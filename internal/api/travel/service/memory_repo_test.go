package travelService

import (
	"TravelExpense/internal/api/travel"
	travelRepository "TravelExpense/internal/api/travel/repository"
	"TravelExpense/internal/entity"
	"database/sql"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/net/context"
)

// memState is one snapshot of the tables. Transactions work on a clone and
// swap it in on Commit.
type memState struct {
	users       map[string]entity.AssignedUser
	trips       map[string]entity.Trip
	assignments []entity.TripAssignment
	expenses    map[string]entity.Expense
}

func newMemState() *memState {
	return &memState{
		users:    map[string]entity.AssignedUser{},
		trips:    map[string]entity.Trip{},
		expenses: map[string]entity.Expense{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.trips {
		c.trips[k] = v
	}
	for k, v := range s.expenses {
		c.expenses[k] = v
	}
	c.assignments = append([]entity.TripAssignment(nil), s.assignments...)
	return c
}

// memRepository serialises transactions with one lock held from NewClient
// until Commit or Rollback, which is stricter than the row lock Postgres
// takes but enough to observe lost updates.
type memRepository struct {
	mu    sync.Mutex
	state *memState
	fail  map[string]error
}

func newMemRepository() *memRepository {
	return &memRepository{state: newMemState(), fail: map[string]error{}}
}

func (r *memRepository) addUser(id, name string) {
	r.state.users[id] = entity.AssignedUser{ID: id, Name: name, Email: id + "@example.com"}
}

func (r *memRepository) snapshot() *memState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.clone()
}

func (r *memRepository) NewClient(ctx context.Context, tx bool) (travelRepository.Client, error) {
	if err := r.fail["NewClient"]; err != nil {
		return travelRepository.Client{}, err
	}

	if !tx {
		v := &memView{repo: r}
		return travelRepository.Client{
			Trips:       v,
			Assignments: v,
			Expenses:    v,
			Commit:      func() error { return nil },
			Rollback:    func() error { return nil },
		}, nil
	}

	r.mu.Lock()
	v := &memView{repo: r, staged: r.state.clone()}
	done := false

	commit := func() error {
		if done {
			return sql.ErrTxDone
		}
		done = true
		defer r.mu.Unlock()
		if err := r.fail["Commit"]; err != nil {
			return err
		}
		r.state = v.staged
		return nil
	}
	rollback := func() error {
		if done {
			return sql.ErrTxDone
		}
		done = true
		r.mu.Unlock()
		return nil
	}

	return travelRepository.Client{
		Trips:       v,
		Assignments: v,
		Expenses:    v,
		Commit:      commit,
		Rollback:    rollback,
	}, nil
}

// memView implements every store. A nil staged state means autocommit.
type memView struct {
	repo   *memRepository
	staged *memState
}

func (v *memView) do(op string, fn func(s *memState) error) error {
	if err := v.repo.fail[op]; err != nil {
		return err
	}
	if v.staged != nil {
		return fn(v.staged)
	}
	v.repo.mu.Lock()
	defer v.repo.mu.Unlock()
	return fn(v.repo.state)
}

func (v *memView) CreateTrip(ctx context.Context, trip entity.Trip) error {
	return v.do("CreateTrip", func(s *memState) error {
		trip.AssignedUsers = nil
		trip.Expenses = nil
		s.trips[trip.ID] = trip
		return nil
	})
}

func (v *memView) GetTripByID(ctx context.Context, id string) (trip entity.Trip, err error) {
	err = v.do("GetTripByID", func(s *memState) error {
		t, ok := s.trips[id]
		if !ok {
			return travel.ErrTripNotFound
		}
		trip = t
		return nil
	})
	return trip, err
}

func (v *memView) LockTrip(ctx context.Context, id string) error {
	return v.do("LockTrip", func(s *memState) error {
		if _, ok := s.trips[id]; !ok {
			return travel.ErrTripNotFound
		}
		return nil
	})
}

func (v *memView) UpdateTrip(ctx context.Context, trip entity.Trip) error {
	return v.do("UpdateTrip", func(s *memState) error {
		if _, ok := s.trips[trip.ID]; !ok {
			return travel.ErrTripNotFound
		}
		trip.AssignedUsers = nil
		trip.Expenses = nil
		s.trips[trip.ID] = trip
		return nil
	})
}

func (v *memView) UpdateTripStatus(ctx context.Context, id string, status entity.TripStatus) error {
	return v.do("UpdateTripStatus", func(s *memState) error {
		t, ok := s.trips[id]
		if !ok {
			return travel.ErrTripNotFound
		}
		t.Status = status
		s.trips[id] = t
		return nil
	})
}

func (v *memView) AddToTotal(ctx context.Context, id string, delta decimal.Decimal) error {
	return v.do("AddToTotal", func(s *memState) error {
		t, ok := s.trips[id]
		if !ok {
			return travel.ErrTripNotFound
		}
		t.TotalAmount = t.TotalAmount.Add(delta)
		s.trips[id] = t
		return nil
	})
}

func (v *memView) RecomputeTotal(ctx context.Context, id string) (total decimal.Decimal, err error) {
	err = v.do("RecomputeTotal", func(s *memState) error {
		t, ok := s.trips[id]
		if !ok {
			return travel.ErrTripNotFound
		}
		sum := decimal.Zero
		for _, e := range s.expenses {
			if e.TripID == id {
				sum = sum.Add(e.Amount)
			}
		}
		t.TotalAmount = sum
		s.trips[id] = t
		total = sum
		return nil
	})
	return total, err
}

func (v *memView) DeleteTrip(ctx context.Context, id string) error {
	return v.do("DeleteTrip", func(s *memState) error {
		if _, ok := s.trips[id]; !ok {
			return travel.ErrTripNotFound
		}
		delete(s.trips, id)
		for eid, e := range s.expenses {
			if e.TripID == id {
				delete(s.expenses, eid)
			}
		}
		kept := s.assignments[:0]
		for _, a := range s.assignments {
			if a.TripID != id {
				kept = append(kept, a)
			}
		}
		s.assignments = kept
		return nil
	})
}

func (v *memView) visibleTrips(s *memState, userID string) []entity.Trip {
	trips := make([]entity.Trip, 0, len(s.trips))
	for _, t := range s.trips {
		if userID != "" && !s.isAssigned(t.ID, userID) {
			continue
		}
		trips = append(trips, t)
	}
	sort.Slice(trips, func(i, j int) bool {
		if !trips[i].CreatedAt.Equal(trips[j].CreatedAt) {
			return trips[i].CreatedAt.After(trips[j].CreatedAt)
		}
		return trips[i].ID > trips[j].ID
	})
	return trips
}

func (v *memView) ListTrips(ctx context.Context, filter travelRepository.TripFilter) (trips []entity.Trip, err error) {
	err = v.do("ListTrips", func(s *memState) error {
		all := v.visibleTrips(s, filter.UserID)
		if filter.Offset >= len(all) {
			trips = []entity.Trip{}
			return nil
		}
		end := filter.Offset + filter.Limit
		if end > len(all) {
			end = len(all)
		}
		trips = all[filter.Offset:end]
		return nil
	})
	return trips, err
}

func (v *memView) CountTrips(ctx context.Context, userID string) (count int64, err error) {
	err = v.do("CountTrips", func(s *memState) error {
		count = int64(len(v.visibleTrips(s, userID)))
		return nil
	})
	return count, err
}

func (v *memView) StatsByStatus(ctx context.Context, userID string) (stats []entity.TripStatusStat, err error) {
	err = v.do("StatsByStatus", func(s *memState) error {
		byStatus := map[entity.TripStatus]*entity.TripStatusStat{}
		for _, t := range v.visibleTrips(s, userID) {
			st, ok := byStatus[t.Status]
			if !ok {
				st = &entity.TripStatusStat{Status: t.Status, TotalAmount: decimal.Zero}
				byStatus[t.Status] = st
			}
			st.Count++
			st.TotalAmount = st.TotalAmount.Add(t.TotalAmount)
		}
		for _, st := range byStatus {
			stats = append(stats, *st)
		}
		return nil
	})
	return stats, err
}

func (s *memState) isAssigned(tripID, userID string) bool {
	for _, a := range s.assignments {
		if a.TripID == tripID && a.UserID == userID {
			return true
		}
	}
	return false
}

func (v *memView) CreateAssignments(ctx context.Context, assignments []entity.TripAssignment) error {
	return v.do("CreateAssignments", func(s *memState) error {
		s.assignments = append(s.assignments, assignments...)
		return nil
	})
}

func (v *memView) DeleteAssignmentsByTrip(ctx context.Context, tripID string) error {
	return v.do("DeleteAssignmentsByTrip", func(s *memState) error {
		kept := make([]entity.TripAssignment, 0, len(s.assignments))
		for _, a := range s.assignments {
			if a.TripID != tripID {
				kept = append(kept, a)
			}
		}
		s.assignments = kept
		return nil
	})
}

func (v *memView) IsAssigned(ctx context.Context, tripID string, userID string) (ok bool, err error) {
	err = v.do("IsAssigned", func(s *memState) error {
		ok = s.isAssigned(tripID, userID)
		return nil
	})
	return ok, err
}

func (v *memView) GetAssignedUsers(ctx context.Context, tripIDs []string) (result map[string][]entity.AssignedUser, err error) {
	err = v.do("GetAssignedUsers", func(s *memState) error {
		wanted := map[string]bool{}
		for _, id := range tripIDs {
			wanted[id] = true
		}

		rows := make([]entity.TripAssignment, 0)
		for _, a := range s.assignments {
			if wanted[a.TripID] {
				rows = append(rows, a)
			}
		}
		sort.SliceStable(rows, func(i, j int) bool {
			if !rows[i].AssignedAt.Equal(rows[j].AssignedAt) {
				return rows[i].AssignedAt.Before(rows[j].AssignedAt)
			}
			return rows[i].ID < rows[j].ID
		})

		result = map[string][]entity.AssignedUser{}
		for _, a := range rows {
			result[a.TripID] = append(result[a.TripID], s.users[a.UserID])
		}
		return nil
	})
	return result, err
}

func (v *memView) ExistingUserIDs(ctx context.Context, userIDs []string) (ids []string, err error) {
	err = v.do("ExistingUserIDs", func(s *memState) error {
		for _, id := range userIDs {
			if _, ok := s.users[id]; ok {
				ids = append(ids, id)
			}
		}
		return nil
	})
	return ids, err
}

func (v *memView) CreateExpense(ctx context.Context, expense entity.Expense) error {
	return v.do("CreateExpense", func(s *memState) error {
		if _, ok := s.trips[expense.TripID]; !ok {
			return travel.ErrTripNotFound
		}
		s.expenses[expense.ID] = expense
		return nil
	})
}

func (v *memView) GetExpenseByID(ctx context.Context, id string) (expense entity.Expense, err error) {
	err = v.do("GetExpenseByID", func(s *memState) error {
		e, ok := s.expenses[id]
		if !ok {
			return travel.ErrExpenseNotFound
		}
		expense = e
		return nil
	})
	return expense, err
}

func (v *memView) UpdateExpense(ctx context.Context, expense entity.Expense) error {
	return v.do("UpdateExpense", func(s *memState) error {
		if _, ok := s.expenses[expense.ID]; !ok {
			return travel.ErrExpenseNotFound
		}
		s.expenses[expense.ID] = expense
		return nil
	})
}

func (v *memView) DeleteExpense(ctx context.Context, id string) error {
	return v.do("DeleteExpense", func(s *memState) error {
		if _, ok := s.expenses[id]; !ok {
			return travel.ErrExpenseNotFound
		}
		delete(s.expenses, id)
		return nil
	})
}

func (v *memView) ListExpensesByTrip(ctx context.Context, tripID string) (expenses []entity.Expense, err error) {
	err = v.do("ListExpensesByTrip", func(s *memState) error {
		expenses = []entity.Expense{}
		for _, e := range s.expenses {
			if e.TripID == tripID {
				expenses = append(expenses, e)
			}
		}
		sort.Slice(expenses, func(i, j int) bool {
			if !expenses[i].Date.Equal(expenses[j].Date) {
				return expenses[i].Date.After(expenses[j].Date)
			}
			return expenses[i].ID > expenses[j].ID
		})
		return nil
	})
	return expenses, err
}

func (v *memView) ListExportExpenses(ctx context.Context) (rows []entity.ExportExpense, err error) {
	err = v.do("ListExportExpenses", func(s *memState) error {
		rows = []entity.ExportExpense{}
		for _, e := range s.expenses {
			t := s.trips[e.TripID]
			rows = append(rows, entity.ExportExpense{
				Expense:       e,
				TripCity:      t.City,
				TripStartDate: t.StartDate,
				TripEndDate:   t.EndDate,
				TripProject:   t.Project,
			})
		}
		sort.Slice(rows, func(i, j int) bool {
			if !rows[i].Date.Equal(rows[j].Date) {
				return rows[i].Date.Before(rows[j].Date)
			}
			return rows[i].ID < rows[j].ID
		})
		return nil
	})
	return rows, err
}
