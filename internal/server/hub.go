package server

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"solitaire-game/internal/database"
	"solitaire-game/internal/game"
	"solitaire-game/internal/protocol"

	"github.com/google/uuid"
)

// clientMessage is a helper struct to pass messages along with the client reference.
type clientMessage struct {
	client  *Client
	message protocol.Message
}

// session ties a connected client to its player identity and current game.
type session struct {
	player  *game.SolitairePlayer
	game    *game.Solitaire
	cancels []func()
}

// Hub manages active WebSocket connections and bridges them onto the game
// manager: inbound messages become manager/game calls, game events become
// outbound state pushes.
type Hub struct {
	manager *game.Manager
	db      *database.Service

	clientMu sync.RWMutex
	clients  map[*Client]bool
	sessions map[*Client]*session

	processMessage chan clientMessage
	register       chan *Client
	unregister     chan *Client

	// recorded holds the deal timestamp of the last stored result per game,
	// so a win observed by several sessions inserts a single row.
	resultMu sync.Mutex
	recorded map[*game.Solitaire]time.Time

	nextPlayerID atomic.Int64
}

// NewHub creates a new Hub instance. db may be nil when results should not
// be recorded.
func NewHub(manager *game.Manager, db *database.Service) *Hub {
	h := &Hub{
		manager:        manager,
		db:             db,
		clients:        make(map[*Client]bool),
		sessions:       make(map[*Client]*session),
		processMessage: make(chan clientMessage),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		recorded:       make(map[*game.Solitaire]time.Time),
	}

	manager.OnListUpdated(func(_ *game.Manager, g game.Game, update game.ListUpdateType) {
		if update != game.GameRemoved {
			return
		}
		if sol, ok := g.(*game.Solitaire); ok {
			h.resultMu.Lock()
			delete(h.recorded, sol)
			h.resultMu.Unlock()
		}
	})
	return h
}

// Run starts the Hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			client.ID = uuid.NewString()
			log.Printf("Client %s connected", client.ID)
			h.clientMu.Lock()
			h.clients[client] = true
			h.clientMu.Unlock()

		case client := <-h.unregister:
			h.dropClient(client)

		case clientMsg := <-h.processMessage:
			h.handleMessage(clientMsg.client, clientMsg.message)
		}
	}
}

// dropClient removes a disconnected client and leaves its game, if any.
func (h *Hub) dropClient(client *Client) {
	h.clientMu.Lock()
	sess := h.sessions[client]
	_, connected := h.clients[client]
	if connected {
		delete(h.clients, client)
		delete(h.sessions, client)
		close(client.send)
		log.Printf("Client %s (%s) disconnected", client.ID, client.Name)
	}
	h.clientMu.Unlock()

	if sess != nil {
		h.endSession(sess)
	}
}

// endSession cancels the session's event subscriptions and removes its
// player from the game.
func (h *Hub) endSession(sess *session) {
	for _, cancel := range sess.cancels {
		cancel()
	}
	if err := h.manager.Leave(sess.game, sess.player); err != nil {
		log.Printf("Error leaving game %s: %v", sess.game.Code(), err)
	}
}

// handleMessage processes a message received from a client.
func (h *Hub) handleMessage(client *Client, msg protocol.Message) {
	switch msg.Type {
	case "create_game":
		h.handleCreateGame(client, msg)
	case "join_game":
		h.handleJoinGame(client, msg)
	case "leave_game":
		h.handleLeaveGame(client)
	case "restart":
		if sess := h.session(client); sess != nil {
			sess.game.Restart()
		}
	case "next_talon":
		if sess := h.session(client); sess != nil {
			sess.game.NextTalonCard()
		}
	case "move":
		h.handleMove(client, msg)
	case "list_games":
		h.sendGameList(client)
	case "ping":
		pongMsg, _ := protocol.NewMessage("pong", nil)
		h.trySend(client, pongMsg)
	default:
		log.Printf("Received unknown message type '%s' from client %s", msg.Type, client.ID)
		h.sendError(client, "Unknown message type.")
	}
}

func (h *Hub) session(client *Client) *session {
	h.clientMu.RLock()
	defer h.clientMu.RUnlock()
	return h.sessions[client]
}

// handleCreateGame creates a solitaire game for the client and wires its
// events back onto the connection.
func (h *Hub) handleCreateGame(client *Client, msg protocol.Message) {
	if h.session(client) != nil {
		h.sendError(client, "Already in a game.")
		return
	}

	var payload protocol.CreateGamePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("Error unmarshalling create_game payload from client %s: %v", client.ID, err)
		h.sendError(client, "Invalid create_game message format.")
		return
	}
	if payload.Name == "" {
		h.sendError(client, "Name cannot be empty.")
		return
	}

	config := game.DefaultSolitaireConfiguration
	switch payload.Visibility {
	case "", "public":
		config.Visibility = game.VisibilityPublic
	case "friends":
		config.Visibility = game.VisibilityFriendsOnly
	case "private":
		config.Visibility = game.VisibilityPrivate
	default:
		h.sendError(client, "Invalid visibility.")
		return
	}

	player := &game.SolitairePlayer{
		PlayerID: int(h.nextPlayerID.Add(1)),
		Name:     payload.Name,
	}

	g, err := h.manager.Create(game.NewSolitaire, config, player)
	if err != nil {
		log.Printf("Error creating game for client %s: %v", client.ID, err)
		h.sendError(client, "Failed to create game.")
		return
	}
	sol := g.(*game.Solitaire)
	client.Name = payload.Name

	h.attachSession(client, player, sol)
	log.Printf("Client %s (%s) created game %s", client.ID, client.Name, sol.Code())

	createdMsg, _ := protocol.NewMessage("game_created", protocol.GameCreatedPayload{GameCode: sol.Code()})
	h.trySend(client, createdMsg)
	h.sendGameState(client, sol)
}

// handleJoinGame joins the client to an existing game by code.
func (h *Hub) handleJoinGame(client *Client, msg protocol.Message) {
	if h.session(client) != nil {
		h.sendJoinError(client, "Already in a game.")
		return
	}

	var payload protocol.JoinGamePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("Error unmarshalling join_game payload from client %s: %v", client.ID, err)
		h.sendJoinError(client, "Invalid join_game message format.")
		return
	}
	if payload.Name == "" {
		h.sendJoinError(client, "Name cannot be empty.")
		return
	}
	if payload.GameCode == "" {
		h.sendJoinError(client, "Game code cannot be empty.")
		return
	}

	player := &game.SolitairePlayer{
		PlayerID: int(h.nextPlayerID.Add(1)),
		Name:     payload.Name,
	}

	g, joined, err := h.manager.TryJoin(payload.GameCode, player)
	if err != nil {
		log.Printf("Error joining game %s for client %s: %v", payload.GameCode, client.ID, err)
		h.sendJoinError(client, "Failed to join game.")
		return
	}
	if !joined {
		h.sendJoinError(client, "Game not found or not joinable.")
		return
	}
	sol := g.(*game.Solitaire)
	client.Name = payload.Name

	h.attachSession(client, player, sol)
	log.Printf("Client %s (%s) joined game %s", client.ID, client.Name, sol.Code())
	h.sendGameState(client, sol)
}

// handleLeaveGame removes the client from its game.
func (h *Hub) handleLeaveGame(client *Client) {
	h.clientMu.Lock()
	sess := h.sessions[client]
	delete(h.sessions, client)
	h.clientMu.Unlock()

	if sess == nil {
		h.sendError(client, "You are not in a game.")
		return
	}
	h.endSession(sess)

	leftMsg, _ := protocol.NewMessage("game_left", nil)
	h.trySend(client, leftMsg)
}

// handleMove forwards a move to the client's game. Contract violations are
// reported; strategically illegal moves leave the state unchanged and the
// refreshed state is the only signal.
func (h *Hub) handleMove(client *Client, msg protocol.Message) {
	sess := h.session(client)
	if sess == nil {
		h.sendError(client, "You are not in a game.")
		return
	}

	var payload protocol.MovePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("Error unmarshalling move payload from client %s: %v", client.ID, err)
		h.sendError(client, "Invalid move message format.")
		return
	}

	err := sess.game.Move(
		pileFromString(payload.SrcPile), payload.SrcIndex, payload.SrcCardIndex,
		pileFromString(payload.DstPile), payload.DstIndex)
	if err != nil {
		log.Printf("Rejected move from client %s in game %s: %v", client.ID, sess.game.Code(), err)
		h.sendError(client, "Invalid move parameters.")
		return
	}

	// Legal moves already pushed state through the game's events; resend so
	// an illegal (silently rejected) move still answers with the unchanged
	// state.
	h.sendGameState(client, sess.game)
}

// attachSession records the client's session and subscribes it to the
// game's events.
func (h *Hub) attachSession(client *Client, player *game.SolitairePlayer, sol *game.Solitaire) {
	sess := &session{player: player, game: sol}

	cancelMove := sol.OnStateUpdated(func(g *game.Solitaire, fromPile game.PileType, fromIndex int, toPile game.PileType, toIndex int) {
		h.sendGameState(client, g)
	})
	cancelUpdated := sol.OnUpdated(func(g game.Game, update game.UpdateType) {
		if update == game.StateUpdated && g.State() == game.Done {
			h.recordResult(sol, player)
		}
		h.sendGameState(client, sol)
	})
	sess.cancels = []func(){cancelMove, cancelUpdated}

	h.clientMu.Lock()
	h.sessions[client] = sess
	h.clientMu.Unlock()
}

// recordResult stores a finished game in the results database, once per
// deal no matter how many sessions observe the win.
func (h *Hub) recordResult(sol *game.Solitaire, player *game.SolitairePlayer) {
	if h.db == nil {
		return
	}

	startedAt := sol.StartedAt()
	h.resultMu.Lock()
	if h.recorded[sol].Equal(startedAt) {
		h.resultMu.Unlock()
		return
	}
	h.recorded[sol] = startedAt
	h.resultMu.Unlock()

	result := database.Result{
		ID:         uuid.NewString(),
		GameCode:   sol.Code(),
		Player:     player.Name,
		StartedAt:  startedAt.UTC().Format(time.RFC3339),
		FinishedAt: time.Now().UTC().Format(time.RFC3339),
		Moves:      sol.Moves(),
		Won:        true,
	}
	if err := h.db.Insert(result); err != nil {
		log.Printf("Error recording result for game %s: %v", sol.Code(), err)
	}
}

// sendGameState pushes a full render of the game to the client.
func (h *Hub) sendGameState(client *Client, sol *game.Solitaire) {
	snap := sol.Snapshot()

	players := sol.Players()
	playerInfos := make([]protocol.PlayerInfo, len(players))
	for i, p := range players {
		playerInfos[i] = protocol.PlayerInfo{ID: p.ID(), Name: p.DisplayName()}
	}

	payload := protocol.GameStatePayload{
		GameCode:    sol.Code(),
		State:       snap.State.String(),
		Players:     playerInfos,
		Foundations: snap.Foundations,
		Tableaus:    snap.Tableaus,
		Visibility:  snap.Visibility,
		TalonCount:  len(snap.Talon),
		TalonIndex:  snap.TalonIndex,
		Moves:       snap.Moves,
	}
	if snap.TalonIndex >= 0 {
		payload.TalonCard = snap.Talon[snap.TalonIndex]
	}

	msg, err := protocol.NewMessage("game_state", payload)
	if err != nil {
		log.Printf("Error creating game_state message for game %s: %v", sol.Code(), err)
		return
	}
	h.trySend(client, msg)
}

// sendGameList pushes the public games listing to the client.
func (h *Hub) sendGameList(client *Client) {
	games := h.manager.Games()
	infos := make([]protocol.GameInfo, len(games))
	for i, g := range games {
		infos[i] = protocol.GameInfo{
			Code:        g.Code(),
			State:       g.State().String(),
			PlayerCount: len(g.Players()),
			MaxPlayers:  g.Configuration().MaxPlayers,
		}
	}

	msg, err := protocol.NewMessage("game_list", protocol.GameListPayload{Games: infos})
	if err != nil {
		log.Printf("Error creating game_list message: %v", err)
		return
	}
	h.trySend(client, msg)
}

// trySend delivers a message without blocking the hub; a full or closed
// channel marks the client for cleanup.
func (h *Hub) trySend(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		log.Printf("Failed to send message to client %s (channel full or closed), initiating cleanup.", client.ID)
		go func() {
			h.clientMu.RLock()
			_, stillConnected := h.clients[client]
			h.clientMu.RUnlock()
			if stillConnected {
				h.unregister <- client
			}
		}()
	}
}

func (h *Hub) sendError(client *Client, errorMsg string) {
	msg, err := protocol.NewMessage("error", protocol.ErrorPayload{Message: errorMsg})
	if err != nil {
		log.Printf("Error creating error message for client %s: %v", client.ID, err)
		return
	}
	h.trySend(client, msg)
}

func (h *Hub) sendJoinError(client *Client, errorMsg string) {
	msg, err := protocol.NewMessage("join_error", protocol.JoinErrorPayload{Message: errorMsg})
	if err != nil {
		log.Printf("Error creating join_error message for client %s: %v", client.ID, err)
		return
	}
	h.trySend(client, msg)
}

func pileFromString(pile string) game.PileType {
	switch pile {
	case "tableau":
		return game.PileTableau
	case "foundation":
		return game.PileFoundation
	case "talon":
		return game.PileTalon
	default:
		return game.PileInvalid
	}
}
