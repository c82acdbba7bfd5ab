package main

import "context"

func (cli *commandLine) runTasks() error {
	n, err := cli.runner.Drain(context.Background())
	if err != nil {
		return err
	}
	logger.Printf("processed %d task(s)\n", n)
	return nil
}
