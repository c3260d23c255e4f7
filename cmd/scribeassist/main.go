package main

import (
	"log"

	"github.com/samuel-rapeti26/ScribeAssist-Backend-repo/cmd/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
