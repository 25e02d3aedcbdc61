package columnar

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/parquet/compress"
)

// Codec names a parquet page compression codec
type Codec string

const (
	CodecUncompressed Codec = "uncompressed"
	CodecSnappy       Codec = "snappy"
	CodecGzip         Codec = "gzip"
	CodecBrotli       Codec = "brotli"
	CodecZstd         Codec = "zstd"
	CodecLz4Raw       Codec = "lz4_raw"
)

var codecs = map[Codec]compress.Compression{
	CodecUncompressed: compress.Codecs.Uncompressed,
	CodecSnappy:       compress.Codecs.Snappy,
	CodecGzip:         compress.Codecs.Gzip,
	CodecBrotli:       compress.Codecs.Brotli,
	CodecZstd:         compress.Codecs.Zstd,
	CodecLz4Raw:       compress.Codecs.Lz4Raw,
}

// Codecs lists the supported codecs
func Codecs() []Codec {
	return []Codec{CodecUncompressed, CodecSnappy, CodecGzip, CodecBrotli, CodecZstd, CodecLz4Raw}
}

// ParseCodec maps a configuration name to a Codec. Matching is case
// insensitive and "none" is accepted for uncompressed.
func ParseCodec(name string) (Codec, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "none", "":
		return CodecUncompressed, nil
	case "lz4", "lz4raw":
		return CodecLz4Raw, nil
	}
	if _, ok := codecs[Codec(n)]; !ok {
		return "", fmt.Errorf("unsupported compression codec %q", name)
	}
	return Codec(n), nil
}

func (c Codec) compression() compress.Compression {
	if cc, ok := codecs[c]; ok {
		return cc
	}
	return compress.Codecs.Snappy
}

func codecOf(cc compress.Compression) Codec {
	for name, v := range codecs {
		if v == cc {
			return name
		}
	}
	return Codec(fmt.Sprintf("unknown(%d)", int(cc)))
}
