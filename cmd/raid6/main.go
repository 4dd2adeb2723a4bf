package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	raid6 "github.com/keyplay/RAID6-implementation"
)

func usage() {
	fmt.Println("Usage: raid6 [-config config.yaml] <command> [arguments]")
	fmt.Println("Commands:")
	fmt.Println("  init                      format the array disks")
	fmt.Println("  write <file>              store a file into the array")
	fmt.Println("  read <output-file>        read the stored file out")
	fmt.Println("  fail <disk>               simulate a whole-disk failure")
	fmt.Println("  rebuild <disk>            reconstruct a disk in place")
	fmt.Println("  repair                    scan all stripes and repair corruption")
	fmt.Println("  corrupt <disk> <stripe>   flip bytes in one stored chunk (testing)")
	fmt.Println("  update <offset> <file>    overwrite a byte range of the stored file")
	fmt.Println("  status                    show disk presence and manifest")
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the array config file")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	conf, err := raid6.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	array, err := raid6.New(conf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing array: %v\n", err)
		os.Exit(1)
	}
	defer array.Close()

	ctx := context.Background()

	if err := run(ctx, array, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, array *raid6.Array, args []string) error {
	switch args[0] {
	case "init":
		return array.Init(ctx)

	case "write":
		if len(args) < 2 {
			return fmt.Errorf("usage: raid6 write <file>")
		}
		return array.WriteFile(ctx, args[1])

	case "read":
		if len(args) < 2 {
			return fmt.Errorf("usage: raid6 read <output-file>")
		}
		return array.ReadFileTo(ctx, args[1])

	case "fail":
		disk, err := parseIndex(args, 1, "raid6 fail <disk>")
		if err != nil {
			return err
		}
		return array.FailDisk(disk)

	case "rebuild":
		disk, err := parseIndex(args, 1, "raid6 rebuild <disk>")
		if err != nil {
			return err
		}
		return array.RebuildDisk(ctx, disk)

	case "repair":
		report, err := array.RepairCorruption(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Scanned %d stripes\n", report.StripesScanned)
		fmt.Printf("Repaired %d chunk(s) in stripes %v\n", report.RepairedChunks, report.RepairedStripes)
		if len(report.UnrecoverableStripes) > 0 {
			return fmt.Errorf("stripes %v are unrecoverable", report.UnrecoverableStripes)
		}
		return nil

	case "corrupt":
		disk, err := parseIndex(args, 1, "raid6 corrupt <disk> <stripe>")
		if err != nil {
			return err
		}
		stripe, err := parseIndex(args, 2, "raid6 corrupt <disk> <stripe>")
		if err != nil {
			return err
		}
		return array.CorruptChunk(disk, stripe)

	case "update":
		if len(args) < 3 {
			return fmt.Errorf("usage: raid6 update <offset> <file>")
		}
		offset, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid offset %q: %w", args[1], err)
		}
		data, err := os.ReadFile(args[2])
		if err != nil {
			return err
		}
		return array.UpdateRange(ctx, offset, data)

	case "status":
		status, err := array.Status(ctx)
		if err != nil {
			return err
		}
		fmt.Println("Disks:")
		for _, d := range status.Disks {
			state := "present"
			if !d.Present {
				state = "ABSENT"
			}
			fmt.Printf("  disk %d: %-8s %s\n", d.Index, state, d.Path)
		}
		if status.Manifest == nil {
			fmt.Println("No file stored.")
			return nil
		}
		m := status.Manifest
		fmt.Printf("Stored file: %s (%d bytes, %d stripes, chunk %d, compression %s)\n",
			m.FileName, m.FileSize, m.StripeCount, m.ChunkSize, m.Compression)
		return nil

	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func parseIndex(args []string, pos int, usage string) (int, error) {
	if len(args) <= pos {
		return 0, fmt.Errorf("usage: %s", usage)
	}
	n, err := strconv.Atoi(args[pos])
	if err != nil {
		return 0, fmt.Errorf("invalid index %q: %w", args[pos], err)
	}
	return n, nil
}
