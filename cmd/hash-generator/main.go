// Command hash-generator produces the bcrypt password hash expected by the
// auth.admin_password_hash configuration setting.
//
// Usage:
//
//	hash-generator <password>
package main

import (
	"fmt"
	"os"

	"github.com/engsync/briefing/internal/service/auth"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: hash-generator <password>")
		os.Exit(1)
	}

	hash, err := auth.HashPassword(os.Args[1], bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate hash: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
