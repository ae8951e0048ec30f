package main

import (
	"context"

	"github.com/mygardenbook/gardenbook/internal/admincli"
)

func main() {
	admincli.Execute(context.Background())
}
