package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/logging"

	"github.com/reveriehq/reverie/api"
	"github.com/reveriehq/reverie/db"
	"github.com/reveriehq/reverie/middleware"
	"github.com/reveriehq/reverie/mockserver"
	"github.com/reveriehq/reverie/store"
	"github.com/reveriehq/reverie/ui"
	"github.com/reveriehq/reverie/util"
	"github.com/reveriehq/reverie/web"
)

func main() {

	conf, err := util.ReadConf()
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Println("Configuration: ")
	fmt.Println(util.PrettyPrint(conf))

	database, err := db.Open(util.ResolveFilePath("reverie.db"))
	if err != nil {
		log.Fatalln(err)
	}
	defer database.Close()

	serverURL := conf.Conf.ServerURL
	if conf.Conf.WithMock {
		mockURL := fmt.Sprintf("http://%s:%d", conf.Conf.Host, conf.Conf.MockPort)
		mock, err := mockserver.NewServer(database, mockURL)
		if err != nil {
			log.Fatalln(err)
		}
		go func() {
			if err := mock.Run(fmt.Sprintf(":%d", conf.Conf.MockPort)); err != nil {
				log.Fatalln(err)
			}
		}()
		serverURL = mockURL
	}

	client := api.NewClient(serverURL)
	stores := store.NewStores(client, database, conf.Conf.PageSize)

	// Restore session, likes and comments before any network traffic. A
	// restored token is validated in the background by the UI.
	stores.LoadPersisted()

	if conf.Conf.WithRss {
		go func() {
			if err := web.Router(conf, stores.Feed); err != nil {
				log.Fatalln(err)
			}
		}()
	}

	if conf.Conf.WithSsh {
		serveSsh(conf, client, stores)
		return
	}

	m := ui.NewModel(client, stores, 120, 40)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatalln(err)
	}
}

func serveSsh(conf *util.AppConfig, client *api.Client, stores *store.Stores) {
	s, err := wish.NewServer(
		wish.WithAddress(fmt.Sprintf("%s:%d", conf.Conf.Host, conf.Conf.SshPort)),
		wish.WithHostKeyPath(util.ResolveFilePathWithSubdir(".ssh", "hostkey")),
		wish.WithPublicKeyAuth(publicKeyHandler),
		wish.WithMiddleware(
			middleware.MainTui(client, stores),
			logging.Middleware(), // last middleware executed first
		),
	)
	if err != nil {
		log.Fatalln(err)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	log.Printf("Starting SSH server on %s:%d", conf.Conf.Host, conf.Conf.SshPort)
	go func() {
		if err := s.ListenAndServe(); err != nil {
			log.Fatalln(err)
		}
	}()

	<-done
	log.Println("Stopping SSH server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		log.Fatalln(err)
	}
}

func publicKeyHandler(ssh.Context, ssh.PublicKey) bool {
	return true
}
