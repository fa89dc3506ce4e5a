package main

import (
	"bufio"
	"flag"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/roshank8848/contactmanager-backend/internal/config"
	"github.com/roshank8848/contactmanager-backend/internal/logger"
)

// Usage example on the command line:
// > DB_USER=root DB_PASSWORD=secret go run main.go -file=../../scripts/database.sql
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	logger.InitLogger(cfg)
	log := logger.GetLogger()

	filePtr := flag.String("file", "database.sql", "the sql file to execute")
	flag.Parse()

	db, err := sqlx.Connect("mysql", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	readFile, err := os.Open(*filePtr)
	if err != nil {
		log.Fatal("Failed to open sql file", zap.String("file", *filePtr), zap.Error(err))
	}
	defer readFile.Close()

	// The MySQL driver rejects multi-statement strings, so the file is
	// executed statement by statement. Statements end with ';'.
	fileScanner := bufio.NewScanner(readFile)
	fileScanner.Split(bufio.ScanLines)
	builder := strings.Builder{}
	statements := 0
	for fileScanner.Scan() {
		line := fileScanner.Text()
		builder.WriteString(line)
		builder.WriteString(" ")
		if strings.Contains(line, ";") {
			db.MustExec(builder.String())
			builder = strings.Builder{}
			statements++
		}
	}
	if err := fileScanner.Err(); err != nil {
		log.Fatal("Failed to read sql file", zap.Error(err))
	}
	log.Info("Migration completed",
		zap.String("file", *filePtr), zap.Int("statements", statements))
}
