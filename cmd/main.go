package main

import (
	"github.com/LenBanana/DreckFoods/config"
	"github.com/LenBanana/DreckFoods/routes"
	"github.com/LenBanana/DreckFoods/utils"
)

func main() {
	config.Load()
	utils.InitLogger()
	config.InitDB()
	r := routes.SetupRouter()
	r.Run(":" + config.App.Port)
}
