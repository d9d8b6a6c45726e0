package main

import (
	"log"
	"net/http"
	"os"

	"solitaire-game/internal/database"
	"solitaire-game/internal/game"
	"solitaire-game/internal/server"
)

func main() {
	log.Println("Starting solitaire server...")

	db, err := database.New()
	if err != nil {
		log.Fatalf("Failed to open results database: %v", err)
	}
	defer db.Close()

	manager := game.NewManager()
	defer manager.Close()

	hub := server.NewHub(manager, db)
	go hub.Run()

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		server.ServeWs(hub, w, r)
	})

	fs := http.FileServer(http.Dir("web/static"))
	http.Handle("/", fs)

	server.HandleRoutes(db)

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Fatal(http.ListenAndServe(addr, nil))
}
