package calib

import (
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	sqlx "github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const createCalibTables = `
CREATE TABLE IF NOT EXISTS EnergyCalibRuns (
	CalibID    VARCHAR(36)  NOT NULL PRIMARY KEY,
	Period     VARCHAR(32)  NOT NULL,
	InputFiles TEXT         NOT NULL,
	CreatedAt  VARCHAR(32)  NOT NULL
);
CREATE TABLE IF NOT EXISTS EnergyCalibration (
	CalibID         VARCHAR(36) NOT NULL,
	IChannelAbs240  INTEGER     NOT NULL,
	ADCper511keV    DOUBLE      NOT NULL,
	ADCper511keVErr DOUBLE      NOT NULL,
	Sigma           DOUBLE      NOT NULL,
	PRIMARY KEY (CalibID, IChannelAbs240)
);`

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

type EnergyCalibEntry struct {
	CalibID         string  `db:"CalibID"`
	Channel         int     `db:"IChannelAbs240"`
	ADCper511keV    float64 `db:"ADCper511keV"`
	ADCper511keVErr float64 `db:"ADCper511keVErr"`
	Sigma           float64 `db:"Sigma"`
}

// ConnectToDatabase opens the calibration database. For the sqlite driver
// DBName is the path of the database file.
func ConnectToDatabase(cfg Configuration) (*sqlx.DB, error) {
	var dbURI string
	switch cfg.DBDriver {
	case "mysql":
		port := "3306"
		dbURI = fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", cfg.User, cfg.Passwd, cfg.Host, port, cfg.DBName)
	case "sqlite":
		dbURI = cfg.DBName
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
	if cfg.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Connecting to %s database %s", cfg.DBDriver, cfg.DBName), "database")
	}
	db, err := sqlx.Connect(cfg.DBDriver, dbURI)
	if err != nil {
		return nil, err
	}
	if err := CreateCalibTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func CreateCalibTables(db *sqlx.DB) error {
	for _, stmt := range strings.Split(createCalibTables, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return &ErrCreateTable{TableName: "EnergyCalibration", Err: err}
		}
	}
	return nil
}

// StoreCalibration inserts the records under a new calibration ID, in a
// single transaction. Empty channels are stored with zero constants.
func StoreCalibration(db *sqlx.DB, period string, inputs []string, records []CalibRecord, now time.Time) (string, error) {
	calibID := uuid.NewString()

	tx, err := db.Beginx()
	if err != nil {
		return "", fmt.Errorf("error starting transaction: %w", err)
	}
	_, err = tx.Exec(tx.Rebind("INSERT INTO EnergyCalibRuns (CalibID, Period, InputFiles, CreatedAt) VALUES (?, ?, ?, ?)"),
		calibID, period, strings.Join(inputs, " "), now.UTC().Format(time.RFC3339))
	if err != nil {
		tx.Rollback()
		return "", fmt.Errorf("error inserting calibration run: %w", err)
	}

	if len(records) > 0 {
		entries := make([]EnergyCalibEntry, len(records))
		for i, r := range records {
			entries[i] = EnergyCalibEntry{
				CalibID:         calibID,
				Channel:         int(r.Channel),
				ADCper511keV:    r.Mean,
				ADCper511keVErr: r.MeanErr,
				Sigma:           r.Sigma,
			}
		}
		for _, entry := range entries {
			_, err = tx.NamedExec(`INSERT INTO EnergyCalibration (CalibID, IChannelAbs240, ADCper511keV, ADCper511keVErr, Sigma)
				VALUES (:CalibID, :IChannelAbs240, :ADCper511keV, :ADCper511keVErr, :Sigma)`, entry)
			if err != nil {
				tx.Rollback()
				return "", fmt.Errorf("error inserting constants of channel %d: %w", entry.Channel, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("error committing calibration: %w", err)
	}
	return calibID, nil
}

func LoadCalibrationFromDB(db *sqlx.DB, calibID string) ([]CalibRecord, error) {
	query := db.Rebind(`SELECT CalibID, IChannelAbs240, ADCper511keV, ADCper511keVErr, Sigma
		FROM EnergyCalibration WHERE CalibID = ? ORDER BY IChannelAbs240`)
	rows, err := db.Queryx(query, calibID)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	var records []CalibRecord
	for rows.Next() {
		entry := EnergyCalibEntry{}
		if err := rows.StructScan(&entry); err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		records = append(records, CalibRecord{
			Channel: uint16(entry.Channel),
			Mean:    entry.ADCper511keV,
			MeanErr: entry.ADCper511keVErr,
			Sigma:   entry.Sigma,
			Empty:   entry.ADCper511keV == 0 && entry.ADCper511keVErr == 0,
		})
	}
	return records, rows.Err()
}

// LatestCalibID returns the most recent calibration stored for a period.
func LatestCalibID(db *sqlx.DB, period string) (string, error) {
	var calibID string
	query := db.Rebind("SELECT CalibID FROM EnergyCalibRuns WHERE Period = ? ORDER BY CreatedAt DESC LIMIT 1")
	if err := db.Get(&calibID, query, period); err != nil {
		return "", fmt.Errorf("no calibration for period %q: %w", period, err)
	}
	return calibID, nil
}
