// Package config holds the converter configuration.
//
// # Usage
//
//	cfg, err := config.LoadConfig("jsonparquet.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Environment Variable Substitution
//
//	# jsonparquet.yaml
//	writer:
//	  write_batch_size: ${PARQUET_BATCH_SIZE}
//	  compression: zstd
//	reader:
//	  unexpected_field_behavior: error
//
// Values missing from the file keep the defaults from NewConfig.
package config
