/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nakachan-ing/dtl-cli/internal/aggregate"
	"github.com/spf13/cobra"
)

var (
	taskTypePage int
	taskTypeSort string
	taskTypeDesc bool
)

var taskTypeCmd = &cobra.Command{
	Use:     "tasktype",
	Short:   "Browse task types",
	Aliases: []string{"tt"},
}

var listTaskTypeCmd = &cobra.Command{
	Use:     "list",
	Short:   "List task types",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		types, err := s.taskTypes(cmd.Context())
		if err != nil {
			return err
		}

		if taskTypeSort != "" {
			if _, ok := aggregate.TaskTypeFields[taskTypeSort]; !ok {
				return fmt.Errorf("unknown sort key %q (use id or name)", taskTypeSort)
			}
			state := aggregate.SortState{Key: taskTypeSort}
			if taskTypeDesc {
				state.Direction = aggregate.Descending
			}
			types = aggregate.Sort(types, state, aggregate.TaskTypeFields)
		}

		items, page, totalPages := aggregate.Paginate(types, taskTypePage, aggregate.TaskTypePageSize)

		t := newTable(os.Stdout)
		t.AppendHeader(header("ID", "Name"))
		for _, tt := range items {
			t.AppendRow(table.Row{strconv.Itoa(tt.ID), tt.Name})
		}
		t.Render()
		fmt.Printf("Page %d of %d (%d task types)\n", page, totalPages, len(types))
		return nil
	},
}

func init() {
	listTaskTypeCmd.Flags().IntVar(&taskTypePage, "page", 1, "Page to show")
	listTaskTypeCmd.Flags().StringVar(&taskTypeSort, "sort", "", "Sort key (id, name)")
	listTaskTypeCmd.Flags().BoolVar(&taskTypeDesc, "desc", false, "Sort descending")
	taskTypeCmd.AddCommand(listTaskTypeCmd)
	rootCmd.AddCommand(taskTypeCmd)
}
