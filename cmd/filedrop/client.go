package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sir_venger/filedrop/pkg/fileclient"
)

const defaultServerURL = "http://localhost:3000"

type clientFlags struct {
	server string
	quiet  bool
}

func (f *clientFlags) bind(cmd *cobra.Command) {
	def := os.Getenv("FILEDROP_URL")
	if def == "" {
		def = defaultServerURL
	}
	cmd.Flags().StringVarP(&f.server, "url", "u", def, "server base URL (env FILEDROP_URL)")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "do not print transfer progress")
}

func (f *clientFlags) client() fileclient.Client {
	if f.quiet {
		return fileclient.New(f.server)
	}
	return fileclient.New(f.server, fileclient.WithProgress(os.Stderr))
}

func newUploadCommand() *cobra.Command {
	var (
		flags clientFlags
		name  string
	)

	cmd := &cobra.Command{
		Use:   "upload <path>...",
		Short: "Upload local files to the server",
		Example: `  filedrop upload ./report.pdf
  filedrop upload --name notes.txt ./draft.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name != "" && len(args) > 1 {
				return errors.New("--name can be used with a single file only")
			}

			c := flags.client()
			for _, p := range args {
				target := name
				if target == "" {
					target = filepath.Base(p)
				}
				if err := uploadOne(cmd, c, p, target); err != nil {
					return err
				}
			}
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVarP(&name, "name", "n", "", "name to store the file under")

	return cmd
}

func uploadOne(cmd *cobra.Command, c fileclient.Client, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	fd, err := c.Upload(cmd.Context(), name, f, info.Size())
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", fd.Filename, fd.Size)
	return nil
}

func newDownloadCommand() *cobra.Command {
	var (
		flags  clientFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "download <name>",
		Short: "Download a file from the server",
		Example: `  filedrop download report.pdf
  filedrop download report.pdf -o - > report.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			rc, err := flags.client().Download(cmd.Context(), name)
			if err != nil {
				return err
			}
			defer rc.Close()

			if output == "-" {
				_, err = io.Copy(cmd.OutOrStdout(), rc)
				return err
			}
			if output == "" {
				output = filepath.Base(name)
			}

			return writeFile(output, rc)
		},
	}

	flags.bind(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination path, '-' for stdout")

	return cmd
}

// writeFile пишет во временный файл рядом с целью и переименовывает его,
// чтобы прерванная загрузка не оставила обрезанный файл.
func writeFile(path string, r io.Reader) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".filedrop-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

func newListCommand() *cobra.Command {
	var flags clientFlags

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List files stored on the server",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			files, err := flags.client().List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIZE")
			for _, f := range files {
				fmt.Fprintf(w, "%s\t%d\n", f.Filename, f.Size)
			}
			return w.Flush()
		},
	}

	flags.bind(cmd)
	return cmd
}

func newInfoCommand() *cobra.Command {
	var flags clientFlags

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print the server status line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := flags.client().Info(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}

	flags.bind(cmd)
	return cmd
}
