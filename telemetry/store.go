package telemetry

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Store persists run history to SQLite: one row per run, per stats window
// and per notable death.
type Store struct {
	conn  *sqlx.DB
	runID string
	start time.Time
}

// DeathRecord describes an organism at the moment it died.
type DeathRecord struct {
	RunID      string  `db:"run_id"`
	SimTime    float64 `db:"sim_time"`
	OrganismID uint32  `db:"organism_id"`
	Name       string  `db:"name"`
	Lineage    string  `db:"lineage"`
	Role       string  `db:"role"`
	Generation int     `db:"generation"`
	Age        float64 `db:"age"`
	Size       float64 `db:"size"`
	FoodEaten  int     `db:"food_eaten"`
	Kills      int     `db:"kills"`
	Children   int     `db:"children"`
	Chatter    bool    `db:"chatter"`
}

// RunSummary is the persisted header of one run.
type RunSummary struct {
	ID        string  `db:"id"`
	Seed      int64   `db:"seed"`
	StartedAt int64   `db:"started_at"`
	EndedAt   int64   `db:"ended_at"`
	SimTime   float64 `db:"sim_time"`
	Births    int     `db:"births"`
	Deaths    int     `db:"deaths"`
	MaxGen    int     `db:"max_generation"`
}

// OpenStore opens or creates a SQLite database at the given path.
func OpenStore(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at INTEGER NOT NULL DEFAULT 0,
		sim_time REAL NOT NULL DEFAULT 0,
		births INTEGER NOT NULL DEFAULT 0,
		deaths INTEGER NOT NULL DEFAULT 0,
		max_generation INTEGER NOT NULL DEFAULT 0,
		config TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS windows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		sim_time REAL NOT NULL,
		prey INTEGER NOT NULL,
		pred INTEGER NOT NULL,
		food INTEGER NOT NULL,
		energy REAL NOT NULL,
		cap INTEGER NOT NULL,
		births INTEGER NOT NULL,
		deaths INTEGER NOT NULL,
		kills INTEGER NOT NULL,
		max_generation INTEGER NOT NULL,
		weather TEXT NOT NULL,
		event TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS deaths (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		sim_time REAL NOT NULL,
		organism_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		lineage TEXT NOT NULL,
		role TEXT NOT NULL,
		generation INTEGER NOT NULL,
		age REAL NOT NULL,
		size REAL NOT NULL,
		food_eaten INTEGER NOT NULL,
		kills INTEGER NOT NULL,
		children INTEGER NOT NULL,
		chatter INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_windows_run ON windows(run_id);
	CREATE INDEX IF NOT EXISTS idx_deaths_run ON deaths(run_id, generation);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// StartRun registers a new run and returns its ID.
func (s *Store) StartRun(seed int64, configYAML []byte) (string, error) {
	s.runID = uuid.NewString()
	s.start = time.Now()
	_, err := s.conn.Exec(
		"INSERT INTO runs (id, seed, started_at, config) VALUES (?, ?, ?, ?)",
		s.runID, seed, s.start.Unix(), string(configYAML),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	slog.Info("run started", "run_id", s.runID, "seed", seed)
	return s.runID, nil
}

// RunID returns the active run's ID, or "" before StartRun.
func (s *Store) RunID() string {
	return s.runID
}

// SaveWindow appends a stats window to the active run.
func (s *Store) SaveWindow(w WindowStats) error {
	_, err := s.conn.Exec(`INSERT INTO windows
		(run_id, sim_time, prey, pred, food, energy, cap, births, deaths, kills, max_generation, weather, event)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID, w.SimTimeSec, w.PreyCount, w.PredCount, w.FoodCount, w.Energy, w.PopulationCap,
		w.PreyBirths+w.PredBirths, w.PreyDeaths+w.PredDeaths, w.Kills, w.MaxGeneration,
		w.Weather, w.Event,
	)
	if err != nil {
		return fmt.Errorf("insert window: %w", err)
	}
	return nil
}

// SaveDeaths appends death records in one transaction.
func (s *Store) SaveDeaths(records []DeathRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i := range records {
		records[i].RunID = s.runID
		_, err := tx.NamedExec(`INSERT INTO deaths
			(run_id, sim_time, organism_id, name, lineage, role, generation, age, size,
			 food_eaten, kills, children, chatter)
			VALUES (:run_id, :sim_time, :organism_id, :name, :lineage, :role, :generation, :age, :size,
			 :food_eaten, :kills, :children, :chatter)`, records[i])
		if err != nil {
			return fmt.Errorf("insert death %d: %w", records[i].OrganismID, err)
		}
	}
	return tx.Commit()
}

// EndRun closes out the active run with its final totals.
func (s *Store) EndRun(simTime float64, births, deaths, maxGen int) error {
	_, err := s.conn.Exec(
		"UPDATE runs SET ended_at = ?, sim_time = ?, births = ?, deaths = ?, max_generation = ? WHERE id = ?",
		time.Now().Unix(), simTime, births, deaths, maxGen, s.runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	slog.Info("run ended",
		"run_id", s.runID,
		"sim_time", simTime,
		"births", humanize.Comma(int64(births)),
		"deaths", humanize.Comma(int64(deaths)),
		"max_generation", maxGen,
		"started", humanize.Time(s.start),
	)
	return nil
}

// Run loads a run header by ID.
func (s *Store) Run(id string) (RunSummary, error) {
	var r RunSummary
	err := s.conn.Get(&r,
		"SELECT id, seed, started_at, ended_at, sim_time, births, deaths, max_generation FROM runs WHERE id = ?",
		id,
	)
	return r, err
}

// OldestDeaths returns the longest-lived organisms of the active run.
func (s *Store) OldestDeaths(limit int) ([]DeathRecord, error) {
	var out []DeathRecord
	err := s.conn.Select(&out,
		`SELECT run_id, sim_time, organism_id, name, lineage, role, generation, age, size,
		        food_eaten, kills, children, chatter
		 FROM deaths WHERE run_id = ? ORDER BY age DESC LIMIT ?`,
		s.runID, limit,
	)
	return out, err
}

// WindowCount returns the number of stored windows for the active run.
func (s *Store) WindowCount() (int, error) {
	var n int
	err := s.conn.Get(&n, "SELECT COUNT(*) FROM windows WHERE run_id = ?", s.runID)
	return n, err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}
