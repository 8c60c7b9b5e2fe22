package main

import (
	"flag"
	"fmt"

	"github.com/kabili207/device-dashboard/pkg/auth"
)

func main() {
	length := flag.Int("length", 16, "Length of the password in bytes (will be hex encoded, so output is 2x this)")
	username := flag.String("username", "viewer", "MQTT username to print in the config snippet")
	flag.Parse()

	// Generate random password
	password, err := auth.RandomHex(*length)
	if err != nil {
		fmt.Printf("Error generating password: %v\n", err)
		return
	}

	hash, salt, err := auth.GenerateHashAndSalt(password)
	if err != nil {
		fmt.Printf("Error generating salt: %v\n", err)
		return
	}

	fmt.Printf("Password: %s\n\n", password)
	fmt.Println("# dashboard.yaml")
	fmt.Println("mqtt:")
	fmt.Println("  mode: embedded")
	fmt.Printf("  username: %s\n", *username)
	fmt.Printf("  password_hash: %s\n", hash)
	fmt.Printf("  salt: %s\n", salt)
}
