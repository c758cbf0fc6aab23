// Command createtoken mints a short-lived RS256-signed bearer token for the
// collector's AMQP sink, scoped to a single exchange.
package main

import (
	"crypto/x509"
	"encoding/pem"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt"
)

func main() {
	hoursPtr := flag.Int("hours", 1, "Number of hours the token should be valid")
	exchangePtr := flag.String("exchange", "xrdmon", "Exchange to scope the token to")

	flag.Parse()
	if len(flag.Args()) != 1 {
		fmt.Println("You must include the private key location as the first argument")
		os.Exit(1)
	}

	pemBytes, err := os.ReadFile(flag.Args()[0])
	if err != nil {
		fmt.Println("Failed to read in private key:", flag.Args()[0], ":", err)
		os.Exit(1)
	}
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		fmt.Println("Failed to PEM-decode private key")
		os.Exit(1)
	}
	privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		fmt.Println("Failed to parse private key:", err)
		os.Exit(1)
	}

	type customClaims struct {
		Scope string `json:"scope"`
		jwt.StandardClaims
	}

	claims := customClaims{
		Scope: "my_rabbit_server.write:xrd-mon/" + *exchangePtr,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour * time.Duration(*hoursPtr)).Unix(),
			Issuer:    "xrdmon-collector",
			Audience:  "my_rabbit_server",
			Subject:   "xrdmon-collector",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = "xrdmon-collector"
	signed, err := token.SignedString(privateKey)
	if err != nil {
		fmt.Println("Failed to sign token:", err)
		os.Exit(1)
	}
	fmt.Print(signed)
}
