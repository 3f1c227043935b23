// norprog programs firmware images into a file-backed NOR flash simulation
// using the flasher engine, the way a host tool drives the real
// bootloader-resident stub. Useful for validating images and upload
// tooling without hardware attached.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	log     = logrus.New()
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "norprog",
	Short: "Program firmware images into a simulated serial NOR flash",
	Long: `norprog drives the flash-programming engine against a file-backed
NOR flash image. Images can be streamed raw or zlib-compressed, exactly as
the bootloader stub receives them over the host link.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// engineLogger adapts logrus to the flasher.Logger interface.
type engineLogger struct {
	log *logrus.Logger
}

func (l *engineLogger) fields(keysAndValues []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if k, ok := keysAndValues[i].(string); ok {
			f[k] = keysAndValues[i+1]
		}
	}
	return f
}

func (l *engineLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(l.fields(keysAndValues)).Debug(msg)
}

func (l *engineLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(l.fields(keysAndValues)).Info(msg)
}

func (l *engineLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(l.fields(keysAndValues)).Error(msg)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
