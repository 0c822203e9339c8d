package protocol

// LeaderboardEntry is one row of a LEADERBOARD payload.
type LeaderboardEntry struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	NetWorth string `json:"net_worth"`
	Position int    `json:"position"`
	IsMe     bool   `json:"is_me"`
}

// EventEntry is one item of an event queue.
type EventEntry struct {
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Amount      string `json:"amount,omitempty"`
}

// PlayerUpdatePayload is carried by UPDATE_PLAYER and VICTORY.
type PlayerUpdatePayload struct {
	PlayerID         string       `json:"player_id"`
	Nickname         string       `json:"nickname"`
	NewPosition      int          `json:"new_position"`
	LapsCompleted    int          `json:"laps_completed"`
	NewCash          string       `json:"new_cash"`
	NewDebt          string       `json:"new_debt"`
	NewNetWorth      string       `json:"new_net_worth"`
	NewPassiveIncome string       `json:"new_passive_income"`
	EventQueue       []EventEntry `json:"event_queue"`
	GameTarget       string       `json:"game_target,omitempty"`
}

// TileData is a serialized tile event. Only the fields of its kind are set.
type TileData struct {
	Kind        string `json:"kind"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Cost        string `json:"cost,omitempty"`
	IncomeDelta string `json:"income_delta,omitempty"`
	Amount      string `json:"amount,omitempty"`
}

// DecisionPayload is carried by DECISION_NEEDED.
type DecisionPayload struct {
	PlayerID  string   `json:"player_id"`
	EventData TileData `json:"event_data"`
	DiceValue int      `json:"dice_value"`
}
