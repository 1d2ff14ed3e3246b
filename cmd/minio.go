package cmd

import (
	"fmt"
	"log"

	"SelahFM/config"
	"SelahFM/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix    string
	minioRecursive bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO bucket inspection",
	Long:  `Connects to MinIO and lists the audio objects stored in the bucket.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Connecting to MinIO...")

		cfg := config.Load()
		fmt.Printf("MinIO config: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Could not connect to MinIO: %v", err)
		}

		objects, err := storage.ListObjects(cmd.Context(), minioPrefix, minioRecursive)
		if err != nil {
			log.Fatalf("Could not list objects: %v", err)
		}

		var total int64
		for _, obj := range objects {
			fmt.Printf("%12d  %s\n", obj.Size, obj.Key)
			total += obj.Size
		}
		fmt.Printf("%d objects, %d bytes total\n", len(objects), total)
	},
}

func init() {
	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "object key prefix to list")
	minioCmd.Flags().BoolVarP(&minioRecursive, "recursive", "r", true, "list recursively")
	rootCmd.AddCommand(minioCmd)
}
