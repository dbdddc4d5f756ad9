package main

import (
	"context"

	"github.com/trezcool/shule/storage/database"
)

func (cli *commandLine) bootstrap() error {
	return database.EnsureSuperAdmin(context.Background(), cli.conf, cli.usrRepo)
}
