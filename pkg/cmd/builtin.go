package cmd

// import built-in strategies
import (
	_ "github.com/c9s/bandbot/pkg/strategy/resistance"
)
