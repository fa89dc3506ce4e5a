package main

import (
	"flag"
	"fmt"
	"net/http"
	"time"
)

// Polls the service's health endpoint until it answers, for compose setups
// where the database and the service come up in arbitrary order.
//
// Usage example on the command line:
// > go run main.go -url=http://localhost:8080/health
func main() {
	urlPtr := flag.String("url", "http://localhost:8080/health", "the URL to poll")
	flag.Parse()

	totalWaitTime := 0
	for {
		res, err := http.Get(*urlPtr)
		if err == nil {
			res.Body.Close()
			if res.StatusCode == http.StatusOK {
				fmt.Println(res.Status)
				break
			}
			fmt.Println(res.Status)
		} else {
			fmt.Println(err)
		}
		totalWaitTime += 5
		fmt.Printf("Waiting %d seconds", totalWaitTime)
		fmt.Println()
		time.Sleep(5 * time.Second)
	}
}
