package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/studio-scheduler/internal/persistence"
	"github.com/example/studio-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Pool *sqlite.ConnectionPool

	Studios      persistence.StudioRepository
	Rooms        persistence.RoomRepository
	Instructors  persistence.InstructorRepository
	Customers    persistence.CustomerRepository
	Plans        persistence.PlanRepository
	Memberships  persistence.MembershipRepository
	Payments     persistence.PaymentRepository
	Schedules    persistence.ScheduleRepository
	Attendance   persistence.AttendanceRepository
	Payroll      persistence.PayrollRepository
	BookingStore persistence.BookingStore
}

// NewSQLiteHarness opens a temporary migrated database and registers cleanup
// with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	dsn := "file:" + filepath.Join(dir, "studio.db") + "?_txlock=immediate"

	pool, err := sqlite.Open(dsn)
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}
	tb.Cleanup(func() { _ = pool.Close() })

	if err := pool.Migrate(context.Background()); err != nil {
		tb.Fatalf("failed to migrate database: %v", err)
	}

	studios := sqlite.NewStudioRepository(pool)
	plans := sqlite.NewPlanRepository(pool)
	payroll := sqlite.NewPayrollRepository(pool)

	return &SQLiteHarness{
		Pool:         pool,
		Studios:      studios,
		Rooms:        studios,
		Instructors:  studios,
		Customers:    sqlite.NewCustomerRepository(pool),
		Plans:        plans,
		Memberships:  plans,
		Payments:     plans,
		Schedules:    sqlite.NewScheduleRepository(pool),
		Attendance:   payroll,
		Payroll:      payroll,
		BookingStore: sqlite.NewBookingStore(pool),
	}
}
