package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func attachCmd(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attach",
		Short: "Manage task attachments",
	}
	cmd.AddCommand(attachUploadCmd(opts, stdout, stderr), attachListCmd(opts, stdout, stderr), attachDeleteCmd(opts, stdout, stderr))
	return cmd
}

func attachUploadCmd(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <task-id> <file>",
		Short: "Upload a file to a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0], "task")
			if err != nil {
				return err
			}
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("open attachment: %w", err)
			}
			defer f.Close()

			rt, err := openRuntime(cmd.Context(), opts, stderr)
			if err != nil {
				return err
			}
			defer rt.Close()
			att, err := rt.svc.UploadAttachment(rt.commandContext(cmd.Context(), "attach upload"), taskID, filepath.Base(args[1]), f)
			if err != nil {
				return err
			}
			rt.logger.Info("attachment uploaded", "task_id", taskID, "attachment_id", att.ID, "bytes", att.FileSize)
			_, _ = fmt.Fprintf(stdout, "uploaded %s as attachment %d\n", att.Filename, att.ID)
			return nil
		},
	}
}

func attachListCmd(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:     "list <task-id>",
		Aliases: []string{"ls"},
		Short:   "List a task's attachments",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0], "task")
			if err != nil {
				return err
			}
			rt, err := openRuntime(cmd.Context(), opts, stderr)
			if err != nil {
				return err
			}
			defer rt.Close()
			items, err := rt.svc.ListAttachments(rt.commandContext(cmd.Context(), "attach list"), taskID)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(stdout, items)
			}
			writeAttachments(stdout, items)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func attachDeleteCmd(opts *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <attachment-id>",
		Aliases: []string{"rm"},
		Short:   "Delete an attachment",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "attachment")
			if err != nil {
				return err
			}
			rt, err := openRuntime(cmd.Context(), opts, stderr)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.svc.DeleteAttachment(rt.commandContext(cmd.Context(), "attach delete"), id); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "deleted attachment %d\n", id)
			return nil
		},
	}
}
