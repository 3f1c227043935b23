package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/moffa90/go-norflash/memflash"
)

var (
	dumpOffset string
	dumpLength int
)

func init() {
	dumpCmd.Flags().StringVarP(&dumpOffset, "offset", "o", "0x0", "flash offset to dump from (decimal or 0x hex)")
	dumpCmd.Flags().IntVarP(&dumpLength, "length", "n", 256, "number of bytes to dump")
	rootCmd.AddCommand(dumpCmd)
}

var dumpCmd = &cobra.Command{
	Use:   "dump <flash-image>",
	Short: "Hex dump a range of a flash image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contents, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("open flash image: %w", err)
		}
		dev, err := memflash.Load(contents)
		if err != nil {
			return err
		}

		off64, err := strconv.ParseUint(dumpOffset, 0, 32)
		if err != nil {
			return fmt.Errorf("parse offset %q: %w", dumpOffset, err)
		}
		offset := int64(off64)

		buf := make([]byte, dumpLength)
		n, err := dev.ReadAt(buf, offset)
		if err != nil && n == 0 {
			return fmt.Errorf("read flash: %w", err)
		}
		buf = buf[:n]

		erased := color.New(color.Faint)
		for base := 0; base < len(buf); base += 16 {
			end := base + 16
			if end > len(buf) {
				end = len(buf)
			}
			row := buf[base:end]

			fmt.Printf("%08X  ", offset+int64(base))
			for _, b := range row {
				if b == 0xFF {
					erased.Printf("%02X ", b)
				} else {
					fmt.Printf("%02X ", b)
				}
			}
			fmt.Println()
		}
		return nil
	},
}
