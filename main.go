package main

import (
	"context"
	"log"
	"os"

	"goes-decal-sync/app"
)

func main() {
	if err := app.Execute(context.Background()); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}
