package database

// Result is one finished solitaire game. Only outcomes are stored; live
// game state never touches the database.
type Result struct {
	ID         string `json:"id"`
	GameCode   string `json:"game_code"`
	Player     string `json:"player"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
	Moves      int    `json:"moves"`
	Won        bool   `json:"won"`
}
