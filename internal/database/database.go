package database

import (
	"database/sql"
	"os"
	"strconv"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/joho/godotenv/autoload"
	_ "github.com/mattn/go-sqlite3"
)

const tableName = "solitaire_results"

// Service is a mutex-guarded store of finished-game results. The driver and
// DSN come from DATABASE_DRIVER / DATABASE_DSN (default: local sqlite file),
// so the same code runs against Postgres via the pgx stdlib driver.
type Service struct {
	db     *sql.DB
	driver string
	mu     sync.Mutex
}

// New opens the results database and ensures the schema exists.
func New() (*Service, error) {
	driver := os.Getenv("DATABASE_DRIVER")
	if driver == "" {
		driver = "sqlite3"
	}
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "./solitaire.db"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	sqlStmt := `
	create table if not exists ` + tableName + ` (
		id text not null primary key,
		game_code text,
		player text,
		started_at text,
		finished_at text,
		moves integer,
		won integer
	);
	`
	if _, err := db.Exec(sqlStmt); err != nil {
		db.Close()
		return nil, err
	}

	return &Service{db: db, driver: driver}, nil
}

// rebind rewrites `?` placeholders into the numbered `$1` form Postgres
// expects. database/sql passes placeholders through verbatim, so the pgx
// driver never sees the sqlite form.
func rebind(driver, query string) string {
	if driver != "pgx" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Service) Close() error {
	return s.db.Close()
}

// Insert stores one finished game.
func (s *Service) Insert(result Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(rebind(s.driver, "INSERT INTO "+tableName+
		" (id, game_code, player, started_at, finished_at, moves, won) VALUES (?, ?, ?, ?, ?, ?, ?)"),
		result.ID,
		result.GameCode,
		result.Player,
		result.StartedAt,
		result.FinishedAt,
		result.Moves,
		result.Won)
	return err
}

// GetAll returns every stored result.
func (s *Service) GetAll() ([]Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT id, game_code, player, started_at, finished_at, moves, won FROM " + tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanResults(rows)
}

// GetByPlayer returns the results for one player name. Returns
// sql.ErrNoRows when the player has none.
func (s *Service) GetByPlayer(player string) ([]Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(rebind(s.driver, "SELECT id, game_code, player, started_at, finished_at, moves, won FROM "+tableName+
		" WHERE player = ?"), player)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results, err := scanResults(rows)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, sql.ErrNoRows
	}
	return results, nil
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var result Result
		if err := rows.Scan(
			&result.ID,
			&result.GameCode,
			&result.Player,
			&result.StartedAt,
			&result.FinishedAt,
			&result.Moves,
			&result.Won); err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}
