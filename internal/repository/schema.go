package repository

import "fmt"

// Schema returns idempotent DDL for every table the service touches. It is
// applied on startup before any query runs.
func Schema() []string {
	ddl := []string{`CREATE DATABASE IF NOT EXISTS alphacast`}
	for _, table := range []string{"alphacast.candles_1m", "alphacast.candles_1h", "alphacast.candles_1d"} {
		ddl = append(ddl, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            bucket DateTime,
            symbol LowCardinality(String),
            open Float64,
            high Float64,
            low Float64,
            close Float64,
            vol Float64
        ) ENGINE = ReplacingMergeTree()
        ORDER BY (symbol, bucket)`, table))
	}
	ddl = append(ddl, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
        symbol LowCardinality(String),
        t DateTime,
        price Float64,
        vol Float64
    ) ENGINE = MergeTree()
    ORDER BY (symbol, t)
    TTL t + INTERVAL 7 DAY`, ticksTable))
	return append(ddl, ForecastSchema()...)
}
