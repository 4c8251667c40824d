package artifact

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"pvplant/internal/model"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02 15:04:05"

var identRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

const unifiedDDL = `CREATE TABLE unified (
	timestamp TEXT NOT NULL,
	plant TEXT NOT NULL,
	inverter_id TEXT NOT NULL,
	dc_power REAL NOT NULL,
	ac_power REAL NOT NULL,
	daily_yield_raw REAL NOT NULL,
	total_yield_raw REAL NOT NULL,
	sensor_id TEXT NOT NULL,
	ambient_temperature REAL NOT NULL,
	module_temperature REAL NOT NULL,
	irradiance REAL NOT NULL,
	efficiency REAL NOT NULL,
	month INTEGER NOT NULL,
	day INTEGER NOT NULL,
	hour INTEGER NOT NULL,
	minute INTEGER NOT NULL,
	PRIMARY KEY (timestamp, plant, inverter_id)
)`

// WriteSQLite creates a fresh database at path holding the unified and
// daily tables. The daily table has one REAL column per aggregate column.
func WriteSQLite(ctx context.Context, path string, recs []model.UnifiedRecord, daily []model.DailyAggregate, columns []string) error {
	for _, c := range columns {
		if !identRe.MatchString(c) {
			return fmt.Errorf("sqlite: invalid column name %q", c)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, unifiedDDL); err != nil {
		return fmt.Errorf("creating unified table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, dailyDDL(columns)); err != nil {
		return fmt.Errorf("creating daily table: %w", err)
	}

	if err := insertUnified(ctx, tx, recs); err != nil {
		return err
	}
	if err := insertDaily(ctx, tx, daily, columns); err != nil {
		return err
	}
	return tx.Commit()
}

func dailyDDL(columns []string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE daily (\n\tplant TEXT NOT NULL,\n\tinverter_id TEXT NOT NULL,\n\tdate TEXT NOT NULL,\n\tsamples INTEGER NOT NULL,\n")
	for _, c := range columns {
		fmt.Fprintf(&b, "\t%s REAL,\n", c)
	}
	b.WriteString("\tPRIMARY KEY (plant, inverter_id, date)\n)")
	return b.String()
}

func insertUnified(ctx context.Context, tx *sql.Tx, recs []model.UnifiedRecord) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO unified VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing unified insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range recs {
		_, err := stmt.ExecContext(ctx,
			r.Timestamp.Format(timeLayout), string(r.Plant), r.InverterID,
			r.DCPower, r.ACPower, r.DailyYieldRaw, r.TotalYieldRaw,
			r.SensorID, r.AmbientTemperature, r.ModuleTemperature, r.Irradiance,
			r.Efficiency, r.Month, r.Day, r.Hour, r.Minute,
		)
		if err != nil {
			return fmt.Errorf("inserting unified %s@%s: %w", r.Series(), r.Timestamp.Format(timeLayout), err)
		}
	}
	return nil
}

func insertDaily(ctx context.Context, tx *sql.Tx, rows []model.DailyAggregate, columns []string) error {
	marks := strings.Repeat(", ?", len(columns))
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO daily VALUES (?, ?, ?, ?"+marks+")")
	if err != nil {
		return fmt.Errorf("preparing daily insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, 0, 4+len(columns))
	for _, d := range rows {
		args = append(args[:0], string(d.Plant), d.InverterID, d.Date.Format("2006-01-02"), d.Samples)
		for _, c := range columns {
			if v, ok := d.Values[c]; ok {
				args = append(args, v)
			} else {
				args = append(args, nil)
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting daily %s@%s: %w", d.Series(), d.Date.Format("2006-01-02"), err)
		}
	}
	return nil
}
