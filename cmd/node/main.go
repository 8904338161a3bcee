// Command node starts a Plurality game node.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/plurality-game/plurality/chess/remote"
	"github.com/plurality-game/plurality/config"
	"github.com/plurality-game/plurality/core"
	"github.com/plurality-game/plurality/crypto/certgen"
	"github.com/plurality-game/plurality/engine"
	"github.com/plurality-game/plurality/engine/modules/bank"
	"github.com/plurality-game/plurality/events"
	"github.com/plurality-game/plurality/indexer"
	"github.com/plurality-game/plurality/rpc"
	"github.com/plurality-game/plurality/storage"
	"github.com/plurality-game/plurality/wallet"

	// Import engine modules to trigger their init() self-registration.
	_ "github.com/plurality-game/plurality/engine/modules/admin"
	_ "github.com/plurality-game/plurality/engine/modules/ballot"
	_ "github.com/plurality-game/plurality/engine/modules/lifecycle"
	_ "github.com/plurality-game/plurality/engine/modules/settlement"
	_ "github.com/plurality-game/plurality/engine/modules/stake"
)

func main() {
	cfgPath := flag.String("config", "config.json", "path to config file")
	keyPath := flag.String("key", "operator.key", "path to keystore file")
	genKey := flag.Bool("genkey", false, "generate a new operator key and exit")
	genCerts := flag.String("gencerts", "", "generate CA + node TLS certs into the given directory and exit (requires node ID from config)")
	flag.Parse()

	// Optional .env for local development; missing file is fine.
	_ = godotenv.Load()

	// Keystore password comes from the environment, never a CLI flag.
	password := os.Getenv("PLURALITY_PASSWORD")
	if password == "" {
		log.Println("WARNING: PLURALITY_PASSWORD not set, keystore will use an empty password")
	}

	// ---- generate key mode ----
	if *genKey {
		w, err := wallet.Generate()
		if err != nil {
			log.Fatal(err)
		}
		if err := wallet.SaveKey(*keyPath, password, w.PrivKey()); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Generated key. Public key (operator address): %s\n", w.PubKey())
		fmt.Printf("Saved to: %s\n", *keyPath)
		return
	}

	// ---- generate certs mode ----
	if *genCerts != "" {
		cfgForCerts, err := loadConfig(*cfgPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		if err := certgen.GenerateAll(*genCerts, cfgForCerts.NodeID, nil); err != nil {
			log.Fatalf("gencerts: %v", err)
		}
		fmt.Printf("Certificates generated in %s for node %q\n", *genCerts, cfgForCerts.NodeID)
		return
	}

	// ---- load config ----
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- load operator key ----
	privKey, err := wallet.LoadKey(*keyPath, password)
	if err != nil {
		log.Fatalf("load key: %v", err)
	}
	owner := cfg.Owner
	if owner == "" {
		owner = privKey.Public().Hex()
	}

	// ---- open DB ----
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatalf("mkdir data dir: %v", err)
	}
	db, err := storage.NewLevelDB(cfg.DataDir + "/ledger")
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	state := storage.NewStateDB(db)
	rounds := storage.NewRoundLog(db)

	// ---- bootstrap state (first boot only) ----
	if _, err := state.GetParams(); err != nil {
		if err := bootstrap(state, cfg); err != nil {
			log.Fatalf("bootstrap: %v", err)
		}
		log.Printf("State bootstrapped: min stake %d, seed %d, %d funded accounts",
			cfg.Game.MinStake, cfg.Game.SeedValue, len(cfg.Alloc))
	}

	// ---- events ----
	emitter := events.NewEmitter()

	// ---- indexer ----
	idx, err := indexer.New(db, emitter)
	if err != nil {
		log.Fatalf("indexer: %v", err)
	}

	// ---- collaborators ----
	rules := remote.NewEngine(cfg.EngineURL)
	oracle := remote.NewOracle(cfg.OracleURL)

	// ---- executor ----
	exec := engine.NewExecutor(state, emitter, engine.Options{
		Network: cfg.Network,
		Owner:   owner,
		Signer:  privKey,
		Rules:   rules,
		Oracle:  oracle,
		Payer:   bank.NativePayer{},
		Rounds:  rounds,
	})

	// ---- TLS ----
	tlsCfg, err := config.LoadTLSConfig(cfg.TLS)
	if err != nil {
		log.Fatalf("tls: %v", err)
	}
	if tlsCfg != nil {
		log.Println("mTLS enabled for RPC")
	}

	// ---- RPC ----
	rpcAddr := fmt.Sprintf(":%d", cfg.RPCPort)
	rpcHandler := rpc.NewHandler(exec, state, rounds, idx, cfg.Network, owner)
	rpcServer := rpc.NewServer(rpcAddr, rpcHandler, emitter, cfg.RPCAuthToken, tlsCfg)
	if err := rpcServer.Start(); err != nil {
		log.Fatalf("rpc start: %v", err)
	}
	defer rpcServer.Stop()
	log.Printf("RPC listening on %s", rpcAddr)
	if cfg.RPCAuthToken != "" {
		log.Println("RPC Bearer token authentication enabled")
	}

	log.Printf("Node running (operator: %s, network: %s)", owner, cfg.Network)

	// ---- graceful shutdown ----
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("Shutting down...")

	// Deferred calls run in LIFO: rpcServer.Stop → db.Close
	log.Println("Shutdown complete.")
}

// bootstrap writes the initial game parameters and funded accounts, then
// commits. Runs once, on the first boot of a fresh data dir.
func bootstrap(state *storage.StateDB, cfg *config.Config) error {
	if err := state.SetParams(&core.Params{
		MinStake:    cfg.Game.MinStake,
		SeedValue:   cfg.Game.SeedValue,
		StakePeriod: cfg.Game.StakePeriod,
	}); err != nil {
		return err
	}
	for addr, balance := range cfg.Alloc {
		if err := state.SetAccount(&core.Account{Address: addr, Balance: balance}); err != nil {
			return err
		}
	}
	return state.Commit()
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Config file not found at %s, using defaults.", path)
			return config.DefaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}
