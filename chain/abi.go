package chain

// Only the functions the oracle calls are listed.

const agentNFTABI = `[
  {
    "type": "function",
    "name": "getAgentProfile",
    "stateMutability": "view",
    "inputs": [{"name": "tokenId", "type": "uint256"}],
    "outputs": [{
      "name": "",
      "type": "tuple",
      "internalType": "struct AgentProfile",
      "components": [
        {"name": "personality", "type": "string"},
        {"name": "desires", "type": "string"},
        {"name": "skills", "type": "string[]"},
        {"name": "activityLogHash", "type": "bytes32"},
        {"name": "lastPassionTimestamp", "type": "uint256"},
        {"name": "happinessScore", "type": "uint8"}
      ]
    }]
  }
]`

const decayOracleABI = `[
  {
    "type": "function",
    "name": "isRegistered",
    "stateMutability": "view",
    "inputs": [{"name": "tokenId", "type": "uint256"}],
    "outputs": [{"name": "", "type": "bool"}]
  },
  {
    "type": "function",
    "name": "registerAgent",
    "stateMutability": "nonpayable",
    "inputs": [{"name": "tokenId", "type": "uint256"}],
    "outputs": []
  },
  {
    "type": "function",
    "name": "updateAgentHappiness",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "tokenId", "type": "uint256"},
      {"name": "value", "type": "uint8"}
    ],
    "outputs": []
  }
]`
