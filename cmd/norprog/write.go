package main

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/klauspost/compress/zlib"
	"github.com/spf13/cobra"

	"github.com/moffa90/go-norflash/flasher"
	"github.com/moffa90/go-norflash/flashdev"
	"github.com/moffa90/go-norflash/memflash"
)

var (
	flashPath string
	flashSize int
	offsetArg string
	compress  bool
	chunkSize int
	verify    bool
)

func init() {
	writeCmd.Flags().StringVarP(&flashPath, "flash", "f", "flash.img", "flash image file to program into")
	writeCmd.Flags().IntVar(&flashSize, "flash-size", 4*1024*1024, "flash size in bytes when creating a new image")
	writeCmd.Flags().StringVarP(&offsetArg, "offset", "o", "0x0", "flash offset to program at (decimal or 0x hex)")
	writeCmd.Flags().BoolVarP(&compress, "compress", "z", false, "stream the image zlib-compressed")
	writeCmd.Flags().IntVar(&chunkSize, "chunk-size", 4096, "bytes per data packet")
	writeCmd.Flags().BoolVar(&verify, "verify", true, "read back and compare after programming")
	rootCmd.AddCommand(writeCmd)
}

var writeCmd = &cobra.Command{
	Use:   "write <image>",
	Short: "Program a firmware image",
	Long: `Programs a firmware image into the flash file at the given offset,
streaming it through the flashing engine in packets. With --compress the
image is zlib-compressed first and streamed through the deflated data path.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		image, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}

		off64, err := strconv.ParseUint(offsetArg, 0, 32)
		if err != nil {
			return fmt.Errorf("parse offset %q: %w", offsetArg, err)
		}
		offset := uint32(off64)

		dev, err := openFlash(flashPath, flashSize)
		if err != nil {
			return err
		}

		sess := flasher.New(dev,
			flasher.WithLogger(&engineLogger{log: log}),
			flasher.WithProgressCallback(printProgress),
		)

		if compress {
			err = writeDeflated(sess, image, offset)
		} else {
			err = writeRaw(sess, image, offset)
		}
		fmt.Println()
		if err != nil {
			return err
		}

		if verify {
			if err := verifyFlash(dev, image, offset); err != nil {
				return err
			}
			color.Green("verified %d bytes at 0x%06X", len(image), offset)
		}

		if err := os.WriteFile(flashPath, dev.Bytes(), 0644); err != nil {
			return fmt.Errorf("save flash image: %w", err)
		}
		color.Green("wrote %d bytes to %s at offset 0x%06X", len(image), flashPath, offset)
		return nil
	},
}

// openFlash loads an existing flash image file or creates a blank device.
func openFlash(path string, size int) (*memflash.Device, error) {
	contents, err := os.ReadFile(path)
	switch {
	case err == nil:
		return memflash.Load(contents)
	case os.IsNotExist(err):
		log.WithField("size", size).Debug("creating blank flash image")
		return memflash.New(size)
	default:
		return nil, fmt.Errorf("open flash image: %w", err)
	}
}

func writeRaw(sess *flasher.Session, image []byte, offset uint32) error {
	if err := sess.Begin(uint32(len(image)), offset); err != nil {
		return err
	}
	for len(image) > 0 {
		n := chunkSize
		if n > len(image) {
			n = len(image)
		}
		sess.Data(image[:n])
		if st := sess.LastStatus(); st != flasher.StatusOK {
			return fmt.Errorf("data packet: %s", st)
		}
		image = image[n:]
	}
	return sess.End()
}

func writeDeflated(sess *flasher.Session, image []byte, offset uint32) error {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(image); err != nil {
		return fmt.Errorf("compress image: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress image: %w", err)
	}
	stream := buf.Bytes()
	log.WithField("ratio", fmt.Sprintf("%.2f", float64(len(stream))/float64(len(image)))).
		Debug("image compressed")

	if err := sess.BeginDeflated(uint32(len(image)), uint32(len(stream)), offset); err != nil {
		return err
	}
	for len(stream) > 0 {
		n := chunkSize
		if n > len(stream) {
			n = len(stream)
		}
		sess.DeflatedData(stream[:n])
		if st := sess.LastStatus(); st != flasher.StatusOK {
			return fmt.Errorf("deflated data packet: %s", st)
		}
		stream = stream[n:]
	}
	return sess.End()
}

func verifyFlash(dev *memflash.Device, image []byte, offset uint32) error {
	readback := make([]byte, len(image))
	if _, err := dev.ReadAt(readback, int64(offset)); err != nil {
		return fmt.Errorf("read back: %w", err)
	}
	for i := range image {
		if readback[i] != image[i] {
			return fmt.Errorf("verify failed at 0x%06X: flash 0x%02X, image 0x%02X",
				offset+uint32(i), readback[i], image[i])
		}
	}
	return nil
}

func printProgress(p flasher.Progress) {
	fmt.Printf("\r%s %6.1f%%  %d/%d bytes  (sector %d)",
		color.CyanString("programming"),
		p.Percentage, p.BytesWritten, p.TotalBytes,
		p.BytesWritten/flashdev.SectorSize,
	)
}
