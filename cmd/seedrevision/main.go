package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/domain"
	"server/internal/infra"
)

// seedrevision creates the initial revision batch for a product. Single-view
// regeneration refuses to run against a product with no active revision, so
// operators seed revision 1 from the originally generated view set.
func main() {
	var (
		productFlag string
		userFlag    string
		frontFlag   string
		backFlag    string
		sideFlag    string
		topFlag     string
		bottomFlag  string
	)

	flag.StringVar(&productFlag, "product", "", "product ID to seed (UUID)")
	flag.StringVar(&userFlag, "user", "", "owning user ID (UUID)")
	flag.StringVar(&frontFlag, "front", "", "front view image URL")
	flag.StringVar(&backFlag, "back", "", "back view image URL")
	flag.StringVar(&sideFlag, "side", "", "side view image URL")
	flag.StringVar(&topFlag, "top", "", "top view image URL")
	flag.StringVar(&bottomFlag, "bottom", "", "bottom view image URL")
	flag.Parse()

	productID := strings.TrimSpace(productFlag)
	userID := strings.TrimSpace(userFlag)
	if productID == "" || userID == "" {
		exitWithError(errors.New("both -product and -user must be provided"))
	}

	views := map[domain.ViewType]string{}
	for vt, url := range map[domain.ViewType]string{
		domain.ViewFront:  frontFlag,
		domain.ViewBack:   backFlag,
		domain.ViewSide:   sideFlag,
		domain.ViewTop:    topFlag,
		domain.ViewBottom: bottomFlag,
	} {
		if trimmed := strings.TrimSpace(url); trimmed != "" {
			views[vt] = trimmed
		}
	}
	if len(views) == 0 {
		exitWithError(errors.New("at least one view URL must be provided"))
	}

	_ = godotenv.Load()
	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		exitWithError(err)
	}
	defer pool.Close()

	batch, err := repo.NewRevisionRepository(pool).SeedInitialBatch(ctx, productID, userID, views)
	if err != nil {
		exitWithError(err)
	}

	fmt.Printf("seeded product %s: batch %s revision %d with %d views\n",
		productID, batch.BatchID, batch.RevisionNumber, len(batch.Views))
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "seedrevision: %v\n", err)
	os.Exit(1)
}
