package config

type App struct {
	Port        string `env:"APP_PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	JWTTTLHours int    `env:"JWT_TTL_HOURS" default:"24"`
	Env         string `env:"APP_ENV" default:"dev"`

	// Lending rules. Defaults match the original hardcoded literals.
	BorrowLimit    int    `env:"BORROW_LIMIT" default:"5"`
	LoanPeriodDays int    `env:"LOAN_PERIOD_DAYS" default:"14"`
	OverdueCron    string `env:"OVERDUE_SWEEP_CRON" default:"@hourly"`
}
