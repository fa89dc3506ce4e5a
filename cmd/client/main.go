package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/roshank8848/contactmanager-backend/pkg/client"
	"github.com/roshank8848/contactmanager-backend/pkg/model"
)

// Measures average request latencies in microseconds against a running
// service, for various numbers of stored contacts.
//
// Usage example on the command line:
// > go run main.go -base=http://localhost:8080
func main() {
	basePtr := flag.String("base", "http://localhost:8080", "base URL of the service")
	flag.Parse()

	api := client.New(*basePtr)
	ctx := context.Background()

	fmt.Println()
	fmt.Println("  Elements      POST       PUT       GET    DELETE ")
	fmt.Println("---------------------------------------------------")
	sizes := []int{1000, 5000, 10000, 50000, 100000}
	changes := model.ContactChanges{
		FirstName:   strPtr("Marcus"),
		LastName:    strPtr("Antonius"),
		Email:       strPtr("marcus.antonius@example.com"),
		PhoneNumber: strPtr("+39 999 777 555"),
	}
	for _, loops := range sizes {
		first, err := api.Create(ctx, changes)
		if err != nil {
			panic(err)
		}
		fmt.Printf("%10d", loops)
		{
			// POST requests
			var duration int64
			for i := 0; i < loops; i++ {
				before := time.Now().UnixNano()
				if _, err := api.Create(ctx, changes); err != nil {
					panic(err)
				}
				duration += time.Now().UnixNano() - before
			}
			fmt.Printf("%10d", duration/int64(loops*1000))
		}
		{
			// PUT requests
			update := model.ContactChanges{PhoneNumber: strPtr("+39 111 222 333")}
			callInLoop(first.Id, loops, func(id int64) int64 {
				before := time.Now().UnixNano()
				if _, err := api.Update(ctx, id, update); err != nil {
					panic(err)
				}
				return time.Now().UnixNano() - before
			})
		}
		{
			// GET requests
			callInLoop(first.Id, loops, func(id int64) int64 {
				before := time.Now().UnixNano()
				if _, err := api.Get(ctx, id); err != nil {
					panic(err)
				}
				return time.Now().UnixNano() - before
			})
		}
		{
			// DELETE requests
			callInLoop(first.Id, loops, func(id int64) int64 {
				before := time.Now().UnixNano()
				if _, err := api.Delete(ctx, id); err != nil {
					panic(err)
				}
				return time.Now().UnixNano() - before
			})
		}
		if _, err := api.Delete(ctx, first.Id); err != nil {
			panic(err)
		}
		fmt.Println()
	}
}

// callInLoop visits the ids created after firstID in random order, calls f
// on each and prints the average duration in microseconds.
func callInLoop(firstID int64, loops int, f func(id int64) int64) {
	ids := createRandomSliceWithIDs(firstID+1, loops)
	var duration int64
	for _, id := range ids {
		duration += f(id)
	}
	fmt.Printf("%10d", duration/int64(loops*1000))
}

// createRandomSliceWithIDs builds a shuffled slice of the loops consecutive
// ids starting at firstID. Contacts created back to back receive consecutive
// ids, so these are exactly the ids of the benchmark's own rows.
func createRandomSliceWithIDs(firstID int64, loops int) []int64 {
	ids := make([]int64, 0, loops)
	for i := 0; i < loops; i++ {
		ids = append(ids, firstID+int64(i))
	}
	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	return ids
}

func strPtr(s string) *string {
	return &s
}
