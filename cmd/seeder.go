package cmd

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bxcodec/faker/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/espp/tuition-management/internal/billing"
	"github.com/espp/tuition-management/internal/program"
	"github.com/espp/tuition-management/internal/user"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			fmt.Println("Clearing existing data...")
			for _, table := range []string{"activity_logs", "payments", "bills", "users", "programs"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
		}

		hash, _ := bcrypt.GenerateFromPassword([]byte("password"), cfg.Security.BCryptCost)

		programs := []*program.Program{
			{Code: "TI", Name: "Teknik Informatika", Faculty: "Fakultas Teknik", TuitionFee: decimal.NewFromInt(3000000), IsActive: true},
			{Code: "SI", Name: "Sistem Informasi", Faculty: "Fakultas Teknik", TuitionFee: decimal.NewFromInt(2750000), IsActive: true},
			{Code: "MN", Name: "Manajemen", Faculty: "Fakultas Ekonomi", TuitionFee: decimal.NewFromInt(2500000), IsActive: true},
			{Code: "AK", Name: "Akuntansi", Faculty: "Fakultas Ekonomi", TuitionFee: decimal.NewFromInt(2500000), IsActive: true},
		}
		for _, p := range programs {
			if err := db.Where("code = ?", p.Code).FirstOrCreate(p).Error; err != nil {
				log.Fatalf("failed to seed program %s: %v", p.Code, err)
			}
		}
		fmt.Printf("Seeded %d programs\n", len(programs))

		seedStaff := func(username, fullName, role string) {
			u := &user.User{
				Username:     username,
				Email:        username + "@espp.ac.id",
				PasswordHash: string(hash),
				Role:         role,
				FullName:     fullName,
				IsActive:     true,
			}
			if err := db.Where("username = ?", username).FirstOrCreate(u).Error; err != nil {
				log.Fatalf("failed to seed %s: %v", username, err)
			}
		}
		seedStaff("admin", "Administrator", user.RoleAdmin)
		seedStaff("staff", "Staf Keuangan", user.RoleStaff)
		fmt.Println("Seeded admin and staff users (password: password)")

		// Fake students spread across the programs, one pending bill each.
		year := time.Now().Year()
		for i := 0; i < 20; i++ {
			p := programs[i%len(programs)]
			nim := fmt.Sprintf("%d%02d%04d", year, i%len(programs)+1, i+1)
			fullName := faker.Name()
			username := strings.ToLower(strings.ReplaceAll(faker.Username(), " ", ""))

			student := &user.User{
				Username:     fmt.Sprintf("%s%d", username, i),
				Email:        fmt.Sprintf("%s%d@student.espp.ac.id", username, i),
				PasswordHash: string(hash),
				Role:         user.RoleStudent,
				FullName:     fullName,
				NIM:          &nim,
				ProgramID:    &p.ID,
				IsActive:     true,
			}
			if err := db.Where("nim = ?", nim).FirstOrCreate(student).Error; err != nil {
				log.Fatalf("failed to seed student %s: %v", nim, err)
			}

			bill := &billing.Bill{
				BillNumber:  fmt.Sprintf("BILL-%s%04d", time.Now().Format("20060102150405"), i),
				StudentID:   student.ID,
				ProgramID:   p.ID,
				Amount:      p.TuitionFee,
				Description: fmt.Sprintf("SPP %s %d", time.Now().Month(), year),
				DueDate:     time.Now().AddDate(0, 1, 0),
				Status:      billing.StatusPending,
				CreatedBy:   1,
			}
			if err := db.Where("student_id = ? AND description = ?", student.ID, bill.Description).
				FirstOrCreate(bill).Error; err != nil {
				log.Fatalf("failed to seed bill for %s: %v", nim, err)
			}
		}
		fmt.Println("Seeded 20 students with pending bills")
	},
}
