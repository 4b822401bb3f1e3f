// Package main 一次性初始化：建 PostgreSQL 表结构与 Milvus 集合/索引
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"inbox-rag-api/internal/config"
	"inbox-rag-api/internal/domain/entity"
	"inbox-rag-api/internal/infrastructure/persistence/milvus"
	"inbox-rag-api/internal/infrastructure/persistence/postgres"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// 1. PostgreSQL 表结构
	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		log.Fatalf("failed to connect postgres: %v", err)
	}
	defer func() { _ = pgClient.Close() }()

	fmt.Println("Migrating postgres schema...")
	if err := pgClient.DB().WithContext(ctx).AutoMigrate(
		&entity.KnowledgeBase{},
		&entity.Document{},
		&entity.RAGConfigRecord{},
		&entity.ConversationSession{},
		&entity.ConversationTurn{},
	); err != nil {
		log.Fatalf("failed to migrate postgres schema: %v", err)
	}

	// 2. Milvus 集合与索引
	milvusClient, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		log.Fatalf("failed to connect milvus: %v", err)
	}
	defer func() { _ = milvusClient.Close() }()

	fmt.Println("Ensuring milvus collections...")
	repo := milvus.NewRepository(milvusClient)
	if err := repo.EnsureCollections(ctx); err != nil {
		log.Fatalf("failed to ensure milvus collections: %v", err)
	}

	fmt.Println("Bootstrap completed successfully.")
}
