package analytics

import "context"

// Repository computes the dashboard aggregates in the database. All
// counts marked "recent" cover the trailing 24 hours.
type Repository interface {
	PatientStats(ctx context.Context) (*PatientStats, error)
	QueryStats(ctx context.Context) (*QueryStats, error)
	PaymentStats(ctx context.Context) (*PaymentStats, error)
	AgeGroups(ctx context.Context) (map[string]int, error)
	TopConditions(ctx context.Context, limit int) ([]NameCount, error)
	TopMedications(ctx context.Context, limit int) ([]NameCount, error)
	QueryTrend(ctx context.Context, days int) ([]DailyCount, error)
}
