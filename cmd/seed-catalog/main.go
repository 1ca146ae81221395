package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/torqhq/torq-backend/internal/config"
	"github.com/torqhq/torq-backend/internal/database"
	"github.com/torqhq/torq-backend/internal/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// seedFile is the JSON dump format for loading a question bank into MongoDB,
// used for local development and the e2e suite. Documents are inserted as-is;
// keys in the dump match the stored document keys (exam, subject, chapter,
// paper_id, correct_option, ...).
type seedFile struct {
	Exams     []map[string]interface{} `json:"exams"`
	Subjects  []map[string]interface{} `json:"subjects"`
	Chapters  []map[string]interface{} `json:"chapters"`
	Papers    []map[string]interface{} `json:"papers"`
	Questions []map[string]interface{} `json:"questions"`
}

func main() {
	var (
		file string
		drop bool
	)
	flag.StringVar(&file, "file", "seed/catalog.json", "Path to the catalog dump")
	flag.BoolVar(&drop, "drop", false, "Drop existing collections before seeding")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	raw, err := os.ReadFile(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("Failed to read seed file")
	}

	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		log.Fatal().Err(err).Msg("Failed to parse seed file")
	}

	db, disconnect, err := database.NewCatalogDatabase(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to question bank")
	}
	defer disconnect(context.Background())

	fmt.Println("=== Seeding Question Bank ===")

	insert := func(name string, docs []map[string]interface{}) {
		col := db.Collection(name)
		if drop {
			if err := col.Drop(ctx); err != nil {
				log.Fatal().Err(err).Str("collection", name).Msg("Drop failed")
			}
		}
		if len(docs) == 0 {
			return
		}
		payload := make([]interface{}, len(docs))
		for i, doc := range docs {
			payload[i] = doc
		}
		if _, err := col.InsertMany(ctx, payload); err != nil {
			log.Fatal().Err(err).Str("collection", name).Msg("Insert failed")
		}
		fmt.Printf("Inserted %d documents into %s\n", len(docs), name)
	}

	insert("exams", seed.Exams)
	insert("subjects", seed.Subjects)
	insert("chapters", seed.Chapters)
	insert("papers", seed.Papers)
	insert("questions", seed.Questions)

	ensureIndexes(ctx, db, log)

	fmt.Println("Seed completed!")
}

// ensureIndexes creates the indexes the sampling and search paths rely on.
func ensureIndexes(ctx context.Context, db *mongo.Database, log zerolog.Logger) {
	_, err := db.Collection("questions").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "exam", Value: 1}, {Key: "subject", Value: 1}, {Key: "type", Value: 1}, {Key: "chapter", Value: 1}}},
		{Keys: bson.D{{Key: "paper_id", Value: 1}}},
	})
	if err != nil {
		log.Warn().Err(err).Msg("Index creation failed")
	}
}
