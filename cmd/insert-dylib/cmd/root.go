/*
Copyright © 2026 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/apex/log"
	clihander "github.com/apex/log/handlers/cli"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ch1y1z1/insert-dylib/internal/colors"
	"github.com/ch1y1z1/insert-dylib/internal/config"
	mcmd "github.com/ch1y1z1/insert-dylib/internal/commands/macho"
	"github.com/ch1y1z1/insert-dylib/pkg/patch"
)

var (
	cfgFile string
	// Verbose boolean flag for verbose logging
	Verbose bool
	// Color boolean flag for colorized output
	Color bool
	// AppVersion stores the plugin's version
	AppVersion string
	// AppBuildTime stores the plugin's build time
	AppBuildTime string
)

// confirm asks msg on the terminal, defaulting to yes.
func confirm(msg string) bool {
	yes := false
	prompt := &survey.Confirm{
		Message: msg,
		Default: true,
	}
	if err := survey.AskOne(prompt, &yes); err != nil {
		log.WithError(err).Debug("prompt failed")
		return false
	}
	return yes
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "insert-dylib <INPUT> <DYLIB>",
	Short: "Insert an LC_LOAD_DYLIB load command into a MachO",
	Long: heredoc.Doc(`
		Insert an LC_LOAD_DYLIB load command into a 64-bit or universal MachO.

		The command is written into the free space after the existing load
		commands; nothing in the file is moved. Universal binaries may only
		contain x86_64 and arm64 slices.`),
	Example: heredoc.Doc(`
		# Write a patched copy to ./MyApp_patched
		❯ insert-dylib ./MyApp @executable_path/Frameworks/libHook.dylib

		# Patch in place without any prompts
		❯ insert-dylib -i -y ./MyApp @rpath/libHook.dylib

		# Show what would be written and check the result parses
		❯ insert-dylib --dry-run --verify -V ./MyApp @rpath/libHook.dylib`),
	Args:          cobra.ExactArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {

		c, err := config.LoadConfig()
		if err != nil {
			return err
		}

		if c.Verbose {
			log.SetLevel(log.DebugLevel)
		}
		if viper.IsSet("color") {
			color := viper.GetBool("color")
			colors.Init(&color)
		}

		conf := &mcmd.InsertConfig{
			Input:   filepath.Clean(args[0]),
			Dylib:   args[1],
			Output:  c.Insert.Output,
			InPlace: c.Insert.InPlace,
			AllYes:  c.Insert.AllYes,
			DryRun:  c.Insert.DryRun,
			Verify:  c.Insert.Verify,
			Dump:    c.Verbose,
			Confirm: confirm,
		}

		if _, err := mcmd.InsertDylib(conf); err != nil {
			if errors.Is(err, mcmd.ErrAborted) {
				log.Warn("Aborted")
				return nil
			}
			return err
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if len(AppVersion) > 0 {
		rootCmd.Version = fmt.Sprintf("%s (built %s)", strings.TrimSpace(AppVersion), strings.TrimSpace(AppBuildTime))
	}
	if err := rootCmd.Execute(); err != nil {
		log.WithField("kind", patch.Category(err)).Error(err.Error())
		os.Exit(mcmd.ExitCode(err))
	}
}

func init() {
	log.SetHandler(clihander.Default)

	cobra.OnInitialize(initConfig)

	// Flags
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/insert-dylib/config.yaml)")
	rootCmd.Flags().BoolVarP(&Verbose, "verbose", "V", false, "verbose output (hex dump written commands)")
	rootCmd.Flags().BoolVar(&Color, "color", false, "colorize output")
	rootCmd.Flags().BoolP("inplace", "i", false, "Modify the input file in place")
	rootCmd.Flags().BoolP("all-yes", "y", false, "Run without asking for confirmation")
	rootCmd.Flags().StringP("output", "o", "", "Output path (default is <INPUT>_patched)")
	rootCmd.Flags().Bool("dry-run", false, "Patch an in-memory copy and write nothing")
	rootCmd.Flags().Bool("verify", false, "Re-parse each patched image and check it imports the dylib")
	rootCmd.MarkFlagsMutuallyExclusive("inplace", "output")
	rootCmd.MarkFlagFilename("output")
	viper.BindPFlag("verbose", rootCmd.Flags().Lookup("verbose"))
	viper.BindPFlag("color", rootCmd.Flags().Lookup("color"))
	viper.BindPFlag("insert.inplace", rootCmd.Flags().Lookup("inplace"))
	viper.BindPFlag("insert.all-yes", rootCmd.Flags().Lookup("all-yes"))
	viper.BindPFlag("insert.output", rootCmd.Flags().Lookup("output"))
	viper.BindPFlag("insert.dry-run", rootCmd.Flags().Lookup("dry-run"))
	viper.BindPFlag("insert.verify", rootCmd.Flags().Lookup("verify"))
	viper.BindEnv("color", "CLICOLOR")
	// Settings
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name "config" (without extension).
		viper.AddConfigPath(filepath.Join(home, ".config", "insert-dylib"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("insert_dylib")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Debugf("Using config file: %s", viper.ConfigFileUsed())
	}
}
