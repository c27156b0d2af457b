// Command sweep-orphan-images deletes catalog and profile images that no
// document references any more. By default it lists the bucket folders;
// with -queue it instead drains image.orphaned events from SQS and retries
// the deletions they name.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	awspkg "github.com/yashrajoria/laptop-admin/backend/pkg/aws"
	"github.com/yashrajoria/laptop-admin/backend/pkg/storage"
	authrepo "github.com/yashrajoria/laptop-admin/backend/services/auth-service/repository"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/database"
	"github.com/yashrajoria/laptop-admin/backend/services/catalog-service/repository"
	"github.com/yashrajoria/laptop-admin/backend/services/common/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const defaultFolders = "brands,categories,component-items,accessories,profiles"

func main() {
	_ = godotenv.Load()

	var mongoURI, dbName, folders, provider, bucket, queueURL string
	var grace time.Duration
	var dryRun, all bool
	flag.StringVar(&mongoURI, "mongo", getEnv("MONGO_DB_URL", "mongodb://localhost:27017"), "MongoDB URI")
	flag.StringVar(&dbName, "db", getEnv("MONGO_DB_NAME", "laptop_admin"), "MongoDB database name")
	flag.StringVar(&folders, "folders", defaultFolders, "comma separated folders to sweep")
	flag.BoolVar(&all, "all", false, "sweep the whole bucket instead of -folders")
	flag.StringVar(&provider, "provider", strings.ToLower(getEnv("BLOB_PROVIDER", storage.ProviderS3)), "blob provider: s3 or minio")
	flag.StringVar(&bucket, "bucket", getEnv("AWS_S3_BUCKET", "laptop-admin"), "bucket name")
	flag.DurationVar(&grace, "grace", 24*time.Hour, "keep unreferenced objects younger than this")
	flag.BoolVar(&dryRun, "dry-run", false, "report orphans without deleting them")
	flag.StringVar(&queueURL, "queue", os.Getenv("ORPHAN_QUEUE_URL"), "SQS queue of image.orphaned events; when set, drain it instead of listing the bucket")
	flag.Parse()

	log, err := logger.Initialize(getEnv("APP_ENV", "development"))
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	ctx := context.Background()
	if err := database.ConnectWithConfig(mongoURI, dbName); err != nil {
		zap.L().Fatal("mongo connect", zap.Error(err))
	}
	defer database.Close()

	awsCfg, err := awspkg.LoadAWSConfig(ctx)
	if err != nil {
		zap.L().Fatal("aws config", zap.Error(err))
	}
	store, err := storage.Open(ctx, storage.ProviderConfig{
		Provider:        provider,
		Bucket:          bucket,
		S3Endpoint:      awspkg.Endpoint("AWS_S3_ENDPOINT"),
		CDNDomain:       os.Getenv("AWS_CLOUDFRONT_DOMAIN"),
		MinioEndpoint:   getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:  os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:  os.Getenv("MINIO_SECRET_KEY"),
		MinioSecure:     os.Getenv("MINIO_USE_SSL") == "true",
		MinioPublicBase: os.Getenv("MINIO_PUBLIC_BASE_URL"),
	}, awsCfg)
	if err != nil {
		zap.L().Fatal("blob store", zap.Error(err))
	}

	sweeper := NewSweeper(store, imageFields(database.DB), grace, dryRun)

	if queueURL != "" {
		handled, err := awspkg.NewSQSConsumer(awsCfg, queueURL).Drain(ctx, sweeper.HandleOrphanEvent)
		if err != nil {
			zap.L().Fatal("queue drain failed", zap.Int("handled", handled), zap.Error(err))
		}
		zap.L().Info("Queue drained", zap.String("queue", queueURL), zap.Int("handled", handled), zap.Bool("dry_run", dryRun))
		return
	}

	prefixes := []string{""}
	if !all {
		prefixes = splitFolders(folders)
	}
	report, err := sweeper.Run(ctx, prefixes)
	if err != nil {
		zap.L().Fatal("sweep failed", zap.Error(err))
	}

	for _, key := range report.Orphans {
		fmt.Println(key)
	}
	zap.L().Info("Sweep finished",
		zap.Bool("dry_run", dryRun),
		zap.Strings("prefixes", prefixes),
		zap.Int("referenced", report.Referenced),
		zap.Int("scanned", report.Scanned),
		zap.Int("kept", report.Kept),
		zap.Int("too_young", report.TooYoung),
		zap.Int("orphans", len(report.Orphans)),
		zap.Int("deleted", report.Deleted),
		zap.Int("failed", report.Failed),
	)
	if report.Failed > 0 {
		os.Exit(1)
	}
}

// imageFields lists every document field that stores an image URL.
func imageFields(db *mongo.Database) []imageField {
	brands := repository.NewCollection[bson.M](db, repository.Brands)
	categories := repository.NewCollection[bson.M](db, repository.Categories)
	items := repository.NewCollection[bson.M](db, repository.ComponentItems)
	accessories := repository.NewCollection[bson.M](db, repository.Accessories)
	users := repository.NewCollection[bson.M](db, authrepo.Users)
	return []imageField{
		{repository.Brands, brands, "brandImage"},
		{repository.Categories, categories, "categoryImage"},
		{repository.ComponentItems, items, "mainImage"},
		{repository.ComponentItems, items, "subImages"},
		{repository.Accessories, accessories, "mainImage"},
		{repository.Accessories, accessories, "subImages"},
		{authrepo.Users, users, "profileImage"},
	}
}

func splitFolders(raw string) []string {
	var out []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.Trim(strings.TrimSpace(f), "/"); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
