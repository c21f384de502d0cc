package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Registrations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "account_registrations_total", Help: "Total local registrations"},
	)
	EmailVerifications = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "account_email_verifications_total", Help: "Total redeemed verification tokens"},
	)
	PasswordResets = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "account_password_resets_total", Help: "Total confirmed password resets"},
	)
	SocialLogins = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "social_logins_total", Help: "Total completed social login callbacks"},
	)
	TenantAssignments = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "tenant_assignments_total", Help: "Total company/role assignments committed"},
	)
	TenantAssignmentFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "tenant_assignment_failures_total", Help: "Total join intents naming unknown companies"},
	)
	VotesFinalized = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "votes_finalized_total", Help: "Total finalized votes"},
	)
)

func Register() {
	prometheus.MustRegister(
		Registrations,
		EmailVerifications,
		PasswordResets,
		SocialLogins,
		TenantAssignments,
		TenantAssignmentFailures,
		VotesFinalized,
	)
}
