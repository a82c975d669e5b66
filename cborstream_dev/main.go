// Dev inspector: renders CBOR as diagnostic notation from a hex string,
// a file, or the values of a bbolt bucket (the shape physalis-style event
// stores keep their payloads in).
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lymar/cborstream"
	"github.com/lymar/cborstream/internal/log"
	bolt "go.etcd.io/bbolt"
)

func main() {
	log.Init(slog.LevelDebug)

	file := flag.String("f", "", "read CBOR from file, - for stdin")
	db := flag.String("db", "", "read CBOR values from a bbolt database")
	bucket := flag.String("bucket", "", "bucket name for -db")
	flag.Parse()

	switch {
	case *db != "":
		if *bucket == "" {
			slog.Error("-db needs -bucket")
			os.Exit(2)
		}
		if err := diagBucket(*db, *bucket); err != nil {
			slog.Error("bucket walk failed", "error", err)
			os.Exit(1)
		}
	case *file != "":
		var data []byte
		var err error
		if *file == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(*file)
		}
		if err != nil {
			slog.Error("read failed", "error", err)
			os.Exit(1)
		}
		diagnose(data)
	case flag.NArg() > 0:
		data, err := hex.DecodeString(flag.Arg(0))
		if err != nil {
			slog.Error("bad hex input", "error", err)
			os.Exit(2)
		}
		diagnose(data)
	default:
		// same sample the original inspector shipped with: tag 0 around
		// an RFC 3339 timestamp
		data, _ := hex.DecodeString("c074323031332d30332d32315432303a30343a30305a")
		diagnose(data)
	}
}

func diagnose(data []byte) {
	text, err := cborstream.Diagnose(data)
	if err != nil {
		slog.Error("diagnose failed", "error", err)
		os.Exit(1)
	}
	fmt.Println(text)
}

func diagBucket(path, bucket string) error {
	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout:  1 * time.Second,
		ReadOnly: true,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	return db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucket)
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			text, err := cborstream.Diagnose(v)
			if err != nil {
				slog.Warn("value is not well-formed CBOR",
					"key", hex.EncodeToString(k), "error", err)
				continue
			}
			fmt.Printf("%s\t%s\n", hex.EncodeToString(k), text)
		}
		return nil
	})
}
