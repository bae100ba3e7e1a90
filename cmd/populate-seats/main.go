// Command populate-seats provisions the seat inventory.  Seats are numbered
// block.floor.seat (e.g. "A.01.03") and the command is idempotent: rerunning
// it skips seats that already exist unless --clear wipes the table first.
package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/iliyamo/library-seat-reservation/internal/config"
	"github.com/iliyamo/library-seat-reservation/internal/database"
	"github.com/iliyamo/library-seat-reservation/internal/repository"
)

func main() {
	blocks := flag.StringSlice("blocks", []string{"A", "B", "C"}, "block letters to provision")
	floors := flag.Int("floors", 3, "floors per block")
	seatsPerFloor := flag.Int("seats-per-floor", 10, "seats per floor")
	clear := flag.Bool("clear", false, "delete all existing seats first")
	flag.Parse()

	if *floors < 1 || *seatsPerFloor < 1 || len(*blocks) == 0 {
		log.Fatal("blocks, floors and seats-per-floor must all be positive")
	}

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	seats := repository.NewSeatRepo(db)
	if *clear {
		if err := seats.DeleteAll(ctx); err != nil {
			log.Fatalf("clear seats: %v", err)
		}
		log.Println("cleared existing seats")
	}

	created, skipped := 0, 0
	for _, block := range *blocks {
		block = strings.ToUpper(strings.TrimSpace(block))
		if block == "" {
			continue
		}
		for floor := 1; floor <= *floors; floor++ {
			for seat := 1; seat <= *seatsPerFloor; seat++ {
				number := fmt.Sprintf("%s.%02d.%02d", block, floor, seat)
				location := fmt.Sprintf("Block %s, Floor %d", block, floor)
				_, isNew, err := seats.GetOrCreate(ctx, number, location, "")
				if err != nil {
					log.Fatalf("create seat %s: %v", number, err)
				}
				if isNew {
					created++
				} else {
					skipped++
				}
			}
		}
	}
	log.Printf("done: %d seats created, %d already present", created, skipped)
}
