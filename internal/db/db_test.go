package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wind-smp/market-backend/internal/config"
)

func TestBuildDSN(t *testing.T) {
	base := config.Config{DBUser: "market", DBPassword: "secret", DBName: "wind", DBPort: "3306"}

	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{
			"bare host",
			func(c *config.Config) { c.DBHost = "db.internal" },
			"market:secret@tcp(db.internal:3306)/wind?charset=utf8mb4&parseTime=True&loc=Local",
		},
		{
			"socket path",
			func(c *config.Config) { c.DBHost = "/var/run/mysqld/mysqld.sock" },
			"market:secret@unix(/var/run/mysqld/mysqld.sock)/wind?charset=utf8mb4&parseTime=True&loc=Local",
		},
		{
			"pre-wrapped address",
			func(c *config.Config) { c.DBHost = "tcp(10.0.0.5:3307)" },
			"market:secret@tcp(10.0.0.5:3307)/wind?charset=utf8mb4&parseTime=True&loc=Local",
		},
		{
			"cloud sql instance wins",
			func(c *config.Config) {
				c.DBHost = "db.internal"
				c.InstanceConnectionName = "proj:region:wind-db"
			},
			"market:secret@unix(/cloudsql/proj:region:wind-db)/wind?charset=utf8mb4&parseTime=True&loc=Local",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			assert.Equal(t, tc.want, BuildDSN(&cfg))
		})
	}
}
