package admin

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/quillbase/quillbase/internal/config"
	"github.com/quillbase/quillbase/internal/openai"
	"github.com/quillbase/quillbase/internal/repository"
	"github.com/quillbase/quillbase/internal/service"
)

// IngestCmd returns the ingest command. It runs the full pipeline
// synchronously, useful for seeding a corpus without the server running.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Ingest a document from a local file",
		Long:  "Upload and index a PDF or plain text file directly into the knowledge base",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().StringP("title", "t", "", "Document title (defaults to the file name)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	path := args[0]
	title, _ := cmd.Flags().GetString("title")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.HasOpenAI() {
		return fmt.Errorf("QUILLBASE_OPENAI_API_KEY is required to ingest")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	docRepo := repository.NewDocumentRepository(pool)
	jobRepo := repository.NewIngestJobRepository(pool)

	embeddingClient := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		EmbeddingModel:      goopenai.EmbeddingModel(cfg.EmbeddingModel),
		EmbeddingDimensions: cfg.EmbeddingDimensions,
		ChatModel:           cfg.ChatModel,
	})

	chunkCfg := service.ChunkConfig{
		Size:     cfg.ChunkSize,
		Overlap:  cfg.ChunkOverlap,
		MinChars: cfg.MinChunkChars,
	}
	docSvc := service.NewDocumentServiceWithConfig(docRepo, jobRepo, embeddingClient, chunkCfg, cfg.EmbedTimeout)

	filename := filepath.Base(path)
	doc, err := docSvc.Upload(ctx, service.UploadInput{
		Title:       title,
		Filename:    filename,
		ContentType: mime.TypeByExtension(filepath.Ext(filename)),
		Data:        data,
	})
	if err != nil {
		return fmt.Errorf("failed to upload document: %w", err)
	}

	fmt.Printf("Document created: %s (%s)\n", doc.Title, doc.ID)
	fmt.Println("Indexing...")

	if err := docSvc.IndexDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}

	fmt.Println("Document indexed and ready")
	return nil
}
