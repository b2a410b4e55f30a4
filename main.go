package main

import (
	"github.com/joho/godotenv"
	"github.com/mizuki-h/gh-org-activity/cmd"
)

func main() {
	// Best effort: a missing .env file is fine, the token can come from the
	// real environment.
	_ = godotenv.Load()
	cmd.Execute()
}
